// Package internal provides the App struct that wires all components of eis
// together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/eisenhower/internal/cli"
	"github.com/valter-silva-au/eisenhower/internal/core"
	"github.com/valter-silva-au/eisenhower/internal/integration"
	"github.com/valter-silva-au/eisenhower/internal/observability"
	"github.com/valter-silva-au/eisenhower/internal/storage"
	"github.com/valter-silva-au/eisenhower/pkg/models"
	"go.uber.org/zap"
)

// DefaultEventLogName is the event log file created in the base path when
// observability.event_log is not set.
const DefaultEventLogName = ".eis_events.jsonl"

// App holds all service dependencies for eis.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Store storage.TaskStore

	// Core services
	IDGen      core.TaskIDGenerator
	Reconciler *core.Reconciler
	Engine     *core.Engine

	// Integration services
	Classifier integration.Classifier

	// Observability
	Logger   *zap.Logger
	EventLog    observability.EventLog
	Metrics     *observability.Metrics
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of eis. basePath is the directory
// holding .eisconfig and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(globalCfg); err != nil {
		return nil, err
	}
	app.Config = globalCfg

	// --- Observability ---
	logCfg := globalCfg.Log
	if logCfg.File != "" {
		logCfg.File = resolvePath(basePath, logCfg.File)
	}
	app.Logger, err = observability.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	app.Metrics = observability.NewMetrics()

	eventLogPath := filepath.Join(basePath, DefaultEventLogName)
	if globalCfg.Observability.EventLog != "" {
		eventLogPath = resolvePath(basePath, globalCfg.Observability.EventLog)
	}
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: run without an event log.
		app.Logger.Warn("event log disabled", zap.String("path", eventLogPath), zap.Error(err))
		app.EventLog = nil
	}
	if app.EventLog != nil {
		alertCfg := globalCfg.Observability.Alerts
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, observability.AlertThresholds{
			Window:                    alertCfg.Window,
			MaxClassificationFailures: alertCfg.MaxClassificationFailures,
			UnclassifiedAfter:         alertCfg.UnclassifiedAfter,
		})
	}
	if url := globalCfg.Observability.Alerts.WebhookURL; url != "" {
		app.Notifier = observability.NewSlackNotifier(url, globalCfg.Classifier.Timeout)
	}

	// --- Integration services ---
	app.Classifier = integration.NewHTTPClassifier(integration.ClassifierConfig{
		BaseURL:           globalCfg.Classifier.BaseURL,
		Timeout:           globalCfg.Classifier.Timeout,
		DefaultUrgency:    globalCfg.Classifier.DefaultUrgency,
		DefaultImportance: globalCfg.Classifier.DefaultImportance,
		Recorder:          app.Metrics,
	})

	// --- Storage layer ---
	app.Store = storage.NewTaskStore()

	// --- Core services ---
	app.IDGen = core.NewTaskIDGenerator()
	app.Reconciler = core.NewReconciler(app.Logger.Named("reconciler"))

	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
	}
	app.Engine = core.NewEngine(core.EngineConfig{
		Store:        app.Store,
		Client:       app.Classifier,
		IDGen:        app.IDGen,
		Reconciler:   app.Reconciler,
		Mode:         globalCfg.Sync.SubmissionMode,
		RemoteDelete: globalCfg.Sync.RemoteDelete,
		Logger:       app.Logger.Named("engine"),
		Events:       events,
		Metrics:      app.Metrics,
	})

	// --- Wire CLI package-level variables ---
	cli.Engine = app.Engine
	cli.Classifier = app.Classifier
	cli.Config = globalCfg
	cli.EventLog = app.EventLog
	cli.Metrics = app.Metrics
	cli.AlertEngine = app.AlertEngine
	cli.Notifier = app.Notifier

	app.Logger.Debug("eis initialized",
		zap.String("base_path", basePath),
		zap.String("classifier", globalCfg.Classifier.BaseURL),
		zap.String("submission_mode", string(globalCfg.Sync.SubmissionMode)),
	)

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for eis. It checks the EIS_HOME env
// var, then walks up from the current directory looking for .eisconfig, then
// falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("EIS_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if hasConfigFile(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func hasConfigFile(dir string) bool {
	for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml", core.ConfigFileName + ".yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if strings.HasSuffix(eventType, ".failed") {
		level = "WARN"
	}
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

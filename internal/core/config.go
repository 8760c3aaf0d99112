// Package core contains the task synchronization logic for eis: identifier
// generation, reconciliation of classification responses, quadrant projection,
// configuration, and the Engine that ties them together.
package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// ConfigFileName is the base name of the YAML configuration file.
const ConfigFileName = ".eisconfig"

// ConfigurationManager defines the interface for loading and validating
// configuration from the .eisconfig file and EIS_* environment variables.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper.
type viperConfigManager struct {
	// basePath is the directory where .eisconfig resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .eisconfig relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Classifier: models.ClassifierConfig{
			BaseURL:           "http://localhost:8000",
			Timeout:           10 * time.Second,
			DefaultUrgency:    5,
			DefaultImportance: 5,
		},
		Sync: models.SyncConfig{
			SubmissionMode: models.SubmitSingle,
		},
		Log: models.LogConfig{
			Level: "info",
		},
		Observability: models.ObservabilityConfig{
			Alerts: models.AlertConfig{
				Window:                    24 * time.Hour,
				MaxClassificationFailures: 3,
				UnclassifiedAfter:         10 * time.Minute,
			},
		},
	}
}

// LoadGlobalConfig reads .eisconfig from the base path and overlays EIS_*
// environment variables. A missing file is not an error; defaults are used.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetEnvPrefix("EIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// EIS_API_URL is accepted as a short alias.
	_ = v.BindEnv("classifier.base_url", "EIS_API_URL", "EIS_CLASSIFIER_BASE_URL")

	v.SetDefault("classifier.base_url", cfg.Classifier.BaseURL)
	v.SetDefault("classifier.timeout", cfg.Classifier.Timeout)
	v.SetDefault("classifier.default_urgency", cfg.Classifier.DefaultUrgency)
	v.SetDefault("classifier.default_importance", cfg.Classifier.DefaultImportance)
	v.SetDefault("sync.submission_mode", string(cfg.Sync.SubmissionMode))
	v.SetDefault("sync.load_on_start", cfg.Sync.LoadOnStart)
	v.SetDefault("sync.remote_delete", cfg.Sync.RemoteDelete)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("observability.event_log", cfg.Observability.EventLog)
	v.SetDefault("observability.metrics_addr", cfg.Observability.MetricsAddr)
	v.SetDefault("observability.alerts.window", cfg.Observability.Alerts.Window)
	v.SetDefault("observability.alerts.max_classification_failures", cfg.Observability.Alerts.MaxClassificationFailures)
	v.SetDefault("observability.alerts.unclassified_after", cfg.Observability.Alerts.UnclassifiedAfter)
	v.SetDefault("observability.alerts.webhook_url", cfg.Observability.Alerts.WebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Classifier.BaseURL = strings.TrimRight(v.GetString("classifier.base_url"), "/")
	cfg.Classifier.Timeout = v.GetDuration("classifier.timeout")
	cfg.Classifier.DefaultUrgency = v.GetInt("classifier.default_urgency")
	cfg.Classifier.DefaultImportance = v.GetInt("classifier.default_importance")
	cfg.Sync.SubmissionMode = models.SubmissionMode(strings.ToLower(v.GetString("sync.submission_mode")))
	cfg.Sync.LoadOnStart = v.GetBool("sync.load_on_start")
	cfg.Sync.RemoteDelete = v.GetBool("sync.remote_delete")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")
	cfg.Observability.EventLog = v.GetString("observability.event_log")
	cfg.Observability.MetricsAddr = v.GetString("observability.metrics_addr")
	cfg.Observability.Alerts.Window = v.GetDuration("observability.alerts.window")
	cfg.Observability.Alerts.MaxClassificationFailures = v.GetInt("observability.alerts.max_classification_failures")
	cfg.Observability.Alerts.UnclassifiedAfter = v.GetDuration("observability.alerts.unclassified_after")
	cfg.Observability.Alerts.WebhookURL = v.GetString("observability.alerts.webhook_url")

	return cfg, nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks cfg for invalid values and reports every problem in a
// single error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Classifier.BaseURL == "" {
		errs = append(errs, "classifier.base_url must not be empty")
	} else if u, err := url.Parse(cfg.Classifier.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("classifier.base_url %q is not an absolute URL", cfg.Classifier.BaseURL))
	}

	if cfg.Classifier.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("classifier.timeout must be positive, got %s", cfg.Classifier.Timeout))
	}

	if cfg.Classifier.DefaultUrgency < 1 || cfg.Classifier.DefaultUrgency > 10 {
		errs = append(errs, fmt.Sprintf("classifier.default_urgency %d is invalid, must be between 1 and 10", cfg.Classifier.DefaultUrgency))
	}
	if cfg.Classifier.DefaultImportance < 1 || cfg.Classifier.DefaultImportance > 10 {
		errs = append(errs, fmt.Sprintf("classifier.default_importance %d is invalid, must be between 1 and 10", cfg.Classifier.DefaultImportance))
	}

	switch cfg.Sync.SubmissionMode {
	case models.SubmitSingle, models.SubmitFull:
	default:
		errs = append(errs, fmt.Sprintf("sync.submission_mode %q is invalid, must be one of: single, full", cfg.Sync.SubmissionMode))
	}

	alerts := cfg.Observability.Alerts
	if alerts.Window < 0 || alerts.UnclassifiedAfter < 0 || alerts.MaxClassificationFailures < 0 {
		errs = append(errs, "observability.alerts thresholds must not be negative")
	}
	if alerts.WebhookURL != "" {
		if u, err := url.Parse(alerts.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("observability.alerts.webhook_url %q is not an absolute URL", alerts.WebhookURL))
		}
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

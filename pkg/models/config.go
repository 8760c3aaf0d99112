package models

import "time"

// SubmissionMode controls which tasks are sent along with a new task.
type SubmissionMode string

const (
	// SubmitSingle sends only the newly drafted task.
	SubmitSingle SubmissionMode = "single"
	// SubmitFull resends every task in the store plus the new one.
	SubmitFull SubmissionMode = "full"
)

// ClassifierConfig describes how to reach the classification service.
type ClassifierConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	DefaultUrgency    int           `yaml:"default_urgency" mapstructure:"default_urgency"`
	DefaultImportance int           `yaml:"default_importance" mapstructure:"default_importance"`
}

// SyncConfig holds the engine's synchronization choices.
type SyncConfig struct {
	SubmissionMode SubmissionMode `yaml:"submission_mode" mapstructure:"submission_mode"`
	LoadOnStart    bool           `yaml:"load_on_start" mapstructure:"load_on_start"`
	RemoteDelete   bool           `yaml:"remote_delete" mapstructure:"remote_delete"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// AlertConfig sets the thresholds `eis alerts` evaluates against the event
// log, and an optional webhook to notify.
type AlertConfig struct {
	Window                    time.Duration `yaml:"window" mapstructure:"window"`
	MaxClassificationFailures int           `yaml:"max_classification_failures" mapstructure:"max_classification_failures"`
	UnclassifiedAfter         time.Duration `yaml:"unclassified_after" mapstructure:"unclassified_after"`
	WebhookURL                string        `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
}

// ObservabilityConfig configures the event log, metrics endpoint and alerts.
type ObservabilityConfig struct {
	EventLog    string      `yaml:"event_log,omitempty" mapstructure:"event_log"`
	MetricsAddr string      `yaml:"metrics_addr,omitempty" mapstructure:"metrics_addr"`
	Alerts      AlertConfig `yaml:"alerts" mapstructure:"alerts"`
}

// GlobalConfig holds settings read from .eisconfig and EIS_* environment variables via Viper.
type GlobalConfig struct {
	Classifier    ClassifierConfig    `yaml:"classifier" mapstructure:"classifier"`
	Sync          SyncConfig          `yaml:"sync" mapstructure:"sync"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
	TaskIDs     []string      `json:"task_ids,omitempty"` // oldest first
	Quadrant    string        `json:"quadrant,omitempty"` // last known, single-task alerts only
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	// Window bounds how far back the event log is read.
	Window time.Duration `yaml:"window" json:"window" mapstructure:"window"`
	// MaxClassificationFailures is the number of failed classification calls
	// inside Window at which the service is reported as failing.
	MaxClassificationFailures int `yaml:"max_classification_failures" json:"max_classification_failures" mapstructure:"max_classification_failures"`
	// UnclassifiedAfter is how long a drafted task may wait for a
	// classification before it is reported.
	UnclassifiedAfter time.Duration `yaml:"unclassified_after" json:"unclassified_after" mapstructure:"unclassified_after"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		Window:                    24 * time.Hour,
		MaxClassificationFailures: 3,
		UnclassifiedAfter:         10 * time.Minute,
	}
}

// Event types the alert engine reads. They match the types the task engine
// writes.
const (
	eventTaskDrafted          = "task.drafted"
	eventTaskClassified       = "task.classified"
	eventTaskDeleted          = "task.deleted"
	eventTasksCleared         = "tasks.cleared"
	eventClassificationFailed = "classification.failed"
	eventRemoteDeleteFailed   = "remote_delete.failed"
)

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
// Zero thresholds fall back to DefaultAlertThresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	def := DefaultAlertThresholds()
	if thresholds.Window <= 0 {
		thresholds.Window = def.Window
	}
	if thresholds.MaxClassificationFailures <= 0 {
		thresholds.MaxClassificationFailures = def.MaxClassificationFailures
	}
	if thresholds.UnclassifiedAfter <= 0 {
		thresholds.UnclassifiedAfter = def.UnclassifiedAfter
	}
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate reads the events inside the window and returns every triggered
// alert, most severe first.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	since := now.Add(-ae.thresholds.Window)
	events, err := ae.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkClassificationFailures(events, now)...)
	alerts = append(alerts, ae.checkRemoteDeletes(events, now)...)
	alerts = append(alerts, ae.checkUnclassified(events, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})
	return alerts, nil
}

// checkClassificationFailures fires once the failed-call count reaches the
// threshold.
func (ae *alertEngine) checkClassificationFailures(events []Event, now time.Time) []Alert {
	failures := 0
	seen := make(map[string]bool)
	var taskIDs []string
	for _, e := range events {
		if e.Type != eventClassificationFailed {
			continue
		}
		failures++
		for _, id := range e.TaskIDs() {
			if !seen[id] {
				seen[id] = true
				taskIDs = append(taskIDs, id)
			}
		}
	}
	if failures < ae.thresholds.MaxClassificationFailures {
		return nil
	}
	return []Alert{{
		ID:          "classification-failures",
		Condition:   "classification_failing",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d classification calls failed in the last %s", failures, ae.thresholds.Window),
		TriggeredAt: now,
		TaskIDs:     taskIDs,
	}}
}

// checkRemoteDeletes reports tasks whose remote delete failed and was not
// retried successfully. The service may still hold those tasks.
func (ae *alertEngine) checkRemoteDeletes(events []Event, now time.Time) []Alert {
	failed := make(map[string]bool)
	quadrants := make(map[string]string)
	var order []string
	for _, e := range events {
		taskID, _ := e.Data["task_id"].(string)
		if taskID == "" {
			continue
		}
		switch e.Type {
		case eventTaskClassified:
			quadrants[taskID], _ = e.Data["quadrant"].(string)
		case eventRemoteDeleteFailed:
			if !failed[taskID] {
				order = append(order, taskID)
			}
			failed[taskID] = true
		case eventTaskDrafted:
			// A re-drafted ID is a different task.
			failed[taskID] = false
		}
	}

	var alerts []Alert
	for _, taskID := range order {
		if !failed[taskID] {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "remote-delete-" + taskID,
			Condition:   "remote_delete_failed",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("task %s was deleted locally but the service may still hold it", taskID),
			TriggeredAt: now,
			TaskIDs:     []string{taskID},
			Quadrant:    quadrants[taskID],
		})
	}
	return alerts
}

// checkUnclassified reports drafts that never received a quadrant and were
// not deleted or cleared.
func (ae *alertEngine) checkUnclassified(events []Event, now time.Time) []Alert {
	drafted := make(map[string]time.Time)
	var order []string
	for _, e := range events {
		if e.Type == eventTasksCleared {
			drafted = make(map[string]time.Time)
			order = nil
			continue
		}
		taskID, _ := e.Data["task_id"].(string)
		if taskID == "" {
			continue
		}
		switch e.Type {
		case eventTaskDrafted:
			if _, ok := drafted[taskID]; !ok {
				order = append(order, taskID)
			}
			drafted[taskID] = e.Time
		case eventTaskClassified, eventTaskDeleted:
			delete(drafted, taskID)
		}
	}

	var alerts []Alert
	for _, taskID := range order {
		at, ok := drafted[taskID]
		if !ok || now.Sub(at) <= ae.thresholds.UnclassifiedAfter {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          "unclassified-" + taskID,
			Condition:   "task_unclassified",
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("task %s has waited more than %s for a quadrant", taskID, ae.thresholds.UnclassifiedAfter),
			TriggeredAt: now,
			TaskIDs:     []string{taskID},
		})
	}
	return alerts
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

package core

// Event types the engine writes to the session event log.
const (
	EventTaskDrafted          = "task.drafted"
	EventTaskClassified       = "task.classified"
	EventTaskDeleted          = "task.deleted"
	EventTasksCleared         = "tasks.cleared"
	EventTasksLoaded          = "tasks.loaded"
	EventClassificationFailed = "classification.failed"
	EventRemoteDeleteFailed   = "remote_delete.failed"
)

// EventLogger is the part of the observability event log the engine writes
// to. Declared here so core does not import observability.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

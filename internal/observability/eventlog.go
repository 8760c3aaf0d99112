package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// maxEventLine bounds a single decoded line; task text is user input and may
// be longer than bufio's default token size.
const maxEventLine = 1 << 20

// Event is one line of the session event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// TaskIDs returns the task IDs an event refers to. Single-task events carry
// "task_id"; batch events such as classification.failed carry "task_ids".
func (e Event) TaskIDs() []string {
	var ids []string
	if id, ok := e.Data["task_id"].(string); ok && id != "" {
		ids = append(ids, id)
	}
	switch list := e.Data["task_ids"].(type) {
	case []string:
		ids = append(ids, list...)
	case []any:
		for _, v := range list {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// EventFilter narrows Read results. Zero fields match everything.
type EventFilter struct {
	Since *time.Time
	// Type matches exactly, or by prefix when it ends in "*" ("task.*").
	Type  string
	Level string
	// TaskID keeps events that mention the task, alone or in a batch.
	TaskID string
	// Limit keeps only the most recent N matches when positive.
	Limit int
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog appends one JSON document per line. Writes are serialized;
// reads open the file independently and see every completed line.
type jsonlEventLog struct {
	path string

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLEventLog opens (creating if needed) a JSONL event log at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Write stamps missing time and level, then appends the event. Encoder.Encode
// emits the trailing newline with the document in a single write.
func (l *jsonlEventLog) Write(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = "INFO"
	}
	if event.Message == "" {
		event.Message = event.Type
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enc == nil {
		return fmt.Errorf("writing %s event: log is closed", event.Type)
	}
	if err := l.enc.Encode(event); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	return nil
}

// Read returns matching events in file order. Lines that do not decode, such
// as a line cut short by a crash, are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var events []Event
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if !filter.matches(event) {
			continue
		}
		events = append(events, event)
		if filter.Limit > 0 && len(events) > 2*filter.Limit {
			// Keep memory bounded on long logs.
			events = append(events[:0], events[len(events)-filter.Limit:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[len(events)-filter.Limit:]
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.enc == nil {
		return nil
	}
	l.enc = nil
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func (f EventFilter) matches(event Event) bool {
	if f.Since != nil && event.Time.Before(*f.Since) {
		return false
	}
	if f.Level != "" && event.Level != f.Level {
		return false
	}
	if f.Type != "" {
		if prefix, ok := strings.CutSuffix(f.Type, "*"); ok {
			if !strings.HasPrefix(event.Type, prefix) {
				return false
			}
		} else if event.Type != f.Type {
			return false
		}
	}
	if f.TaskID != "" {
		found := false
		for _, id := range event.TaskIDs() {
			if id == f.TaskID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

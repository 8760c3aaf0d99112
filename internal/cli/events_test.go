package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/eisenhower/internal/observability"
)

// --- parseSinceDuration unit tests ---

func TestParseSinceDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"empty defaults to 7d", "", false, ""},
		{"whitespace defaults to 7d", "  ", false, ""},
		{"valid 7d", "7d", false, ""},
		{"valid 24h", "24h", false, ""},
		{"invalid suffix", "abc", true, "unsupported duration format"},
		{"invalid day number", "xd", true, "invalid day duration"},
		{"invalid hour number", "yh", true, "invalid hour duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSinceDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseSinceDuration_Window(t *testing.T) {
	got, err := parseSinceDuration("24h")
	if err != nil {
		t.Fatal(err)
	}
	if d := time.Since(got); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("24h window is off: %s", d)
	}
}

// --- eventsCmd tests ---

func withEventLog(t *testing.T, events ...observability.Event) {
	t.Helper()

	log, err := observability.NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	orig := EventLog
	origJSON, origSince, origType, origLevel, origTask, origLimit := eventsJSON, eventsSince, eventsType, eventsLevel, eventsTask, eventsLimit
	t.Cleanup(func() {
		_ = log.Close()
		EventLog = orig
		eventsJSON, eventsSince, eventsType, eventsLevel, eventsTask, eventsLimit = origJSON, origSince, origType, origLevel, origTask, origLimit
	})
	EventLog = log
	eventsJSON, eventsSince, eventsType, eventsLevel, eventsTask, eventsLimit = false, "7d", "", "", "", 0
}

func runEvents(t *testing.T) (string, error) {
	t.Helper()
	var out bytes.Buffer
	eventsCmd.SetOut(&out)
	err := eventsCmd.RunE(eventsCmd, []string{})
	return out.String(), err
}

func TestEventsCmd_NilEventLog(t *testing.T) {
	orig := EventLog
	defer func() { EventLog = orig }()
	EventLog = nil

	if _, err := runEvents(t); err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestEventsCmd_Table(t *testing.T) {
	withEventLog(t,
		observability.Event{Type: "task.drafted", Message: "task drafted", Data: map[string]any{"task_id": "a", "text": "Buy milk"}},
		observability.Event{Type: "task.classified", Message: "task classified", Data: map[string]any{"task_id": "a", "quadrant": "Schedule"}},
		observability.Event{Type: "classification.failed", Level: "WARN", Message: "failed"},
	)

	out, err := runEvents(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"task.drafted", "quadrant=Schedule task_id=a", "3 events", "task.classified:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEventsCmd_FiltersAndJSON(t *testing.T) {
	withEventLog(t,
		observability.Event{Type: "task.drafted", Message: "x"},
		observability.Event{Type: "remote_delete.failed", Level: "WARN", Message: "y"},
		observability.Event{Type: "task.drafted", Message: "z"},
	)
	eventsJSON = true
	eventsLevel = "warn"

	out, err := runEvents(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var events []observability.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(events) != 1 || events[0].Type != "remote_delete.failed" {
		t.Errorf("expected only the WARN event, got %+v", events)
	}
}

func TestEventsCmd_TaskFilter(t *testing.T) {
	withEventLog(t,
		observability.Event{Type: "task.drafted", Data: map[string]any{"task_id": "a"}},
		observability.Event{Type: "task.drafted", Data: map[string]any{"task_id": "b"}},
		observability.Event{Type: "classification.failed", Level: "WARN", Data: map[string]any{"task_ids": []string{"a", "b"}}},
		observability.Event{Type: "task.classified", Data: map[string]any{"task_id": "b", "quadrant": "Delegate"}},
		observability.Event{Type: "remote_delete.failed", Level: "WARN", Data: map[string]any{"task_id": "a"}},
	)
	eventsJSON = true
	eventsTask = "a"

	out, err := runEvents(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var events []observability.Event
	if err := json.Unmarshal([]byte(out), &events); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := []string{"task.drafted", "classification.failed", "remote_delete.failed"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events for task a, got %+v", len(want), events)
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("events[%d].Type = %s, want %s", i, e.Type, want[i])
		}
	}
}

func TestEventsCmd_TypeWildcard(t *testing.T) {
	withEventLog(t,
		observability.Event{Type: "task.drafted", Data: map[string]any{"task_id": "a"}},
		observability.Event{Type: "tasks.cleared", Data: map[string]any{"count": 1}},
		observability.Event{Type: "task.deleted", Data: map[string]any{"task_id": "a"}},
	)
	eventsType = "task.*"

	out, err := runEvents(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "2 events") || strings.Contains(out, "tasks.cleared") {
		t.Errorf("expected only task.* events:\n%s", out)
	}
}

func TestEventsCmd_Empty(t *testing.T) {
	withEventLog(t)

	out, err := runEvents(t)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No events since") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestEventsCmd_InvalidSince(t *testing.T) {
	withEventLog(t)
	eventsSince = "abc"

	if _, err := runEvents(t); err == nil || !strings.Contains(err.Error(), "parsing --since") {
		t.Errorf("expected since error, got %v", err)
	}
}

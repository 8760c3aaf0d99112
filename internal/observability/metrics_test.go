package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetrics_SummaryReflectsRecordings(t *testing.T) {
	m := NewMetrics()

	m.ObserveCall("/rank-tasks", "success", 120*time.Millisecond)
	m.ObserveCall("/rank-tasks", "success", 80*time.Millisecond)
	m.ObserveCall("/rank-tasks", "500", 10*time.Millisecond)
	m.AddReconciled("updated", 3)
	m.AddReconciled("stale", 1)
	m.AddReconciled("invalid", 0)
	m.SetStoreSize(4)

	summary, err := m.Summary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := map[string]float64{
		"eis_classifier_call_latency_ms_count{endpoint=/rank-tasks,status=success}": 2,
		"eis_classifier_call_latency_ms_sum{endpoint=/rank-tasks,status=success}":   200,
		"eis_classifier_call_latency_ms_count{endpoint=/rank-tasks,status=500}":     1,
		"eis_reconciled_tasks_total{outcome=updated}":                               3,
		"eis_reconciled_tasks_total{outcome=stale}":                                 1,
		"eis_store_tasks": 4,
	}
	for key, want := range checks {
		if got, ok := summary[key]; !ok || got != want {
			t.Errorf("summary[%s] = %v (present=%v), want %v", key, got, ok, want)
		}
	}
	if _, ok := summary["eis_reconciled_tasks_total{outcome=invalid}"]; ok {
		t.Error("expected zero-count outcome to be absent")
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.SetStoreSize(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "eis_store_tasks 2") {
		t.Errorf("expected exposition to contain store gauge, got:\n%s", body)
	}
}

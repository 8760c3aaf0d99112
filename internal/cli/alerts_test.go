package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/eisenhower/internal/observability"
)

type alertsMock struct {
	evaluateFn func() ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate() ([]observability.Alert, error) {
	return m.evaluateFn()
}

type notifierMock struct {
	notifyFn func(alerts []observability.Alert) error
}

func (m *notifierMock) Notify(_ context.Context, alerts []observability.Alert) error {
	return m.notifyFn(alerts)
}

// runAlerts swaps the alert globals and flags, runs the command and returns
// its output.
func runAlerts(t *testing.T, engine observability.AlertEngine, notifier observability.Notifier, notify, asJSON bool) (string, error) {
	t.Helper()
	origEngine, origNotifier := AlertEngine, Notifier
	origNotify, origJSON := alertsNotify, alertsJSON
	defer func() {
		AlertEngine, Notifier = origEngine, origNotifier
		alertsNotify, alertsJSON = origNotify, origJSON
	}()
	AlertEngine, Notifier = engine, notifier
	alertsNotify, alertsJSON = notify, asJSON

	var out bytes.Buffer
	alertsCmd.SetOut(&out)
	alertsCmd.SetContext(context.Background())
	err := alertsCmd.RunE(alertsCmd, []string{})
	return out.String(), err
}

func sampleAlerts() []observability.Alert {
	return []observability.Alert{
		{ID: "classification-failures", Severity: observability.SeverityHigh, Message: "3 classification calls failed", TriggeredAt: time.Now().UTC(), TaskIDs: []string{"a", "b"}},
		{ID: "remote-delete-c", Severity: observability.SeverityMedium, Message: "task c was deleted locally", TriggeredAt: time.Now().UTC(), TaskIDs: []string{"c"}, Quadrant: "Do Now"},
		{ID: "unclassified-a", Severity: observability.SeverityLow, Message: "task a has waited", TriggeredAt: time.Now().UTC(), TaskIDs: []string{"a"}},
	}
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	_, err := runAlerts(t, nil, nil, false, false)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	out, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return nil, nil }}, nil, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No active alerts.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestAlertsCmd_WithAlerts(t *testing.T) {
	out, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return sampleAlerts(), nil }}, nil, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"3 active alert(s)",
		"[HIGH] 3 classification calls failed",
		"tasks: a, b",
		"last quadrant Do Now",
		"history: eis events --task c",
		"[LOW] task a has waited",
		"history: eis events --task a",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAlertsCmd_JSON(t *testing.T) {
	out, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return nil, nil }}, nil, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var alerts []observability.Alert
	if err := json.Unmarshal([]byte(out), &alerts); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if alerts == nil || len(alerts) != 0 {
		t.Errorf("expected empty JSON array, got %q", out)
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	_, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return nil, fmt.Errorf("disk full")
	}}, nil, false, false)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected evaluate error, got %v", err)
	}
}

func TestAlertsCmd_Notify(t *testing.T) {
	var sent []observability.Alert
	notifier := &notifierMock{notifyFn: func(alerts []observability.Alert) error {
		sent = alerts
		return nil
	}}

	_, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return sampleAlerts(), nil }}, notifier, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) != 3 {
		t.Errorf("expected 3 alerts sent, got %d", len(sent))
	}
}

func TestAlertsCmd_NotifyWithoutWebhook(t *testing.T) {
	_, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return sampleAlerts(), nil }}, nil, true, false)
	if err == nil || !strings.Contains(err.Error(), "webhook_url") {
		t.Fatalf("expected missing webhook error, got %v", err)
	}
}

func TestAlertsCmd_NotifyError(t *testing.T) {
	notifier := &notifierMock{notifyFn: func([]observability.Alert) error { return fmt.Errorf("status 500") }}
	_, err := runAlerts(t, &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return sampleAlerts(), nil }}, notifier, true, false)
	if err == nil || !strings.Contains(err.Error(), "sending alerts") {
		t.Fatalf("expected notify error, got %v", err)
	}
}

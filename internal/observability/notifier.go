package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notifier sends alert notifications to external channels.
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

// slackNotifier posts alerts to a Slack-compatible incoming webhook.
type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that sends alerts to the given webhook
// URL. A zero timeout means 10 seconds.
func NewSlackNotifier(webhookURL string, timeout time.Duration) Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Fields   []slackText `json:"fields,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// maxListedTasks caps the task IDs rendered per alert; the rest are counted.
const maxListedTasks = 5

// Notify sends the given alerts to the configured webhook.
// It returns nil without making a request if the alerts slice is empty.
func (s *slackNotifier) Notify(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(s.buildMessage(alerts))
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *slackNotifier) buildMessage(alerts []Alert) slackMessage {
	tasks := make(map[string]bool)
	for _, alert := range alerts {
		for _, id := range alert.TaskIDs {
			tasks[id] = true
		}
	}
	header := fmt.Sprintf("eis: %d alert(s)", len(alerts))
	if len(tasks) > 0 {
		header += fmt.Sprintf(", %d task(s) affected", len(tasks))
	}
	blocks := []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: header}},
	}

	for i, alert := range alerts {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		section := slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: fmt.Sprintf("%s *%s* %s",
				severityEmoji(alert.Severity), alert.Condition, alert.Message)},
		}
		if alert.Quadrant != "" {
			section.Fields = []slackText{
				{Type: "mrkdwn", Text: "*Quadrant*\n" + alert.Quadrant},
				{Type: "mrkdwn", Text: "*Severity*\n" + strings.ToUpper(string(alert.Severity))},
			}
		}
		blocks = append(blocks, section)

		footer := []slackText{{Type: "mrkdwn", Text: alert.TriggeredAt.Format("2006-01-02 15:04 UTC")}}
		if len(alert.TaskIDs) > 0 {
			footer = append(footer, slackText{Type: "mrkdwn", Text: "Tasks: " + taskList(alert.TaskIDs)})
		}
		blocks = append(blocks, slackBlock{Type: "context", Elements: footer})
	}

	return slackMessage{Blocks: blocks}
}

// taskList renders short task IDs as inline code, e.g. "`1f0c2a9e`, `77b1d4c0` +3 more".
func taskList(ids []string) string {
	shown := ids
	if len(shown) > maxListedTasks {
		shown = shown[:maxListedTasks]
	}
	parts := make([]string, len(shown))
	for i, id := range shown {
		parts[i] = "`" + shortTaskID(id) + "`"
	}
	out := strings.Join(parts, ", ")
	if extra := len(ids) - len(shown); extra > 0 {
		out += fmt.Sprintf(" +%d more", extra)
	}
	return out
}

// shortTaskID trims a UUID to its first group. Other IDs are kept whole.
func shortTaskID(id string) string {
	if _, err := uuid.Parse(id); err == nil && len(id) == 36 {
		return id[:8]
	}
	return id
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}

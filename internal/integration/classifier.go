// Package integration talks to services outside the process. Its main
// component is the HTTP client for the task classification service.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// TransportError reports a failed round trip: the request could not be sent,
// no response arrived, or the service answered with a non-2xx status.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: service returned status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response body that is not a JSON array of tasks.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// CallRecorder observes the outcome and latency of each request.
type CallRecorder interface {
	ObserveCall(endpoint, status string, latency time.Duration)
}

// Classifier is the client side of the classification service.
type Classifier interface {
	// Classify submits candidates in a single POST /rank-tasks request and
	// returns the annotated tasks. It never retries.
	Classify(ctx context.Context, candidates []models.Task) ([]models.Task, error)
	// ListTasks fetches the service's current task list (GET /tasks).
	ListTasks(ctx context.Context) ([]models.Task, error)
	// DeleteTask removes the service's copy of a task (DELETE /tasks/{id}).
	DeleteTask(ctx context.Context, id string) error
}

// ClassifierConfig holds the settings for NewHTTPClassifier.
type ClassifierConfig struct {
	BaseURL           string
	Timeout           time.Duration
	DefaultUrgency    int
	DefaultImportance int
	Recorder          CallRecorder
}

type httpClassifier struct {
	baseURL           string
	httpClient        *http.Client
	defaultUrgency    int
	defaultImportance int
	recorder          CallRecorder
}

// NewHTTPClassifier creates a Classifier for the service at cfg.BaseURL.
func NewHTTPClassifier(cfg ClassifierConfig) Classifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClassifier{
		baseURL:           cfg.BaseURL,
		httpClient:        &http.Client{Timeout: timeout},
		defaultUrgency:    cfg.DefaultUrgency,
		defaultImportance: cfg.DefaultImportance,
		recorder:          cfg.Recorder,
	}
}

// wireTask mirrors the service's JSON task. Quadrant stays a plain string here;
// normalization is the reconciler's job.
type wireTask struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Urgency    int    `json:"urgency"`
	Importance int    `json:"importance"`
	Quadrant   string `json:"quadrant,omitempty"`
}

func (c *httpClassifier) Classify(ctx context.Context, candidates []models.Task) ([]models.Task, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("classify: no tasks to submit")
	}

	body := make([]wireTask, len(candidates))
	for i, t := range candidates {
		body[i] = wireTask{
			ID:         t.ID,
			Text:       t.Text,
			Urgency:    orDefault(t.Urgency, c.defaultUrgency),
			Importance: orDefault(t.Importance, c.defaultImportance),
			Quadrant:   string(t.Quadrant),
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling tasks: %w", err)
	}

	return c.doTasks(ctx, "classify", http.MethodPost, "/rank-tasks", payload)
}

func (c *httpClassifier) ListTasks(ctx context.Context) ([]models.Task, error) {
	return c.doTasks(ctx, "list tasks", http.MethodGet, "/tasks", nil)
}

func (c *httpClassifier) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete task: id must not be empty")
	}
	path := "/tasks/" + url.PathEscape(id)
	resp, err := c.do(ctx, "delete task", http.MethodDelete, path, "/tasks/{id}", nil)
	if err != nil {
		var te *TransportError
		// The service no longer has it, which is what we wanted.
		if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (c *httpClassifier) doTasks(ctx context.Context, op, method, path string, payload []byte) ([]models.Task, error) {
	resp, err := c.do(ctx, op, method, path, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, URL: c.baseURL + path, Err: fmt.Errorf("reading response: %w", err)}
	}
	return decodeTasks(op, data)
}

// do sends one request and returns the response only for 2xx statuses. The
// caller owns the body.
func (c *httpClassifier) do(ctx context.Context, op, method, path, endpoint string, payload []byte) (*http.Response, error) {
	target := c.baseURL + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.observe(endpoint, "error", latency)
		return nil, &TransportError{Op: op, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(endpoint, strconv.Itoa(resp.StatusCode), latency)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		return nil, &TransportError{
			Op:         op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	c.observe(endpoint, "success", latency)
	return resp, nil
}

func (c *httpClassifier) observe(endpoint, status string, latency time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveCall(endpoint, status, latency)
	}
}

// decodeTasks requires a JSON array of task objects. A JSON null or object is
// rejected as malformed.
func decodeTasks(op string, data []byte) ([]models.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponseError{Op: op, Err: errors.New("expected a JSON array of tasks")}
	}

	var wire []wireTask
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &MalformedResponseError{Op: op, Err: err}
	}

	tasks := make([]models.Task, len(wire))
	for i, w := range wire {
		tasks[i] = models.Task{
			ID:         w.ID,
			Text:       w.Text,
			Urgency:    w.Urgency,
			Importance: w.Importance,
			Quadrant:   models.Quadrant(w.Quadrant),
		}
	}
	return tasks, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

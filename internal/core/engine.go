package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/eisenhower/internal/storage"
	"github.com/valter-silva-au/eisenhower/pkg/models"
	"go.uber.org/zap"
)

// ErrEmptyText is returned when a task is drafted from blank input.
var ErrEmptyText = errors.New("task text must not be empty")

// Reconcile outcome labels reported to MetricsRecorder.
const (
	OutcomeUpdated   = "updated"
	OutcomeInserted  = "inserted"
	OutcomeStale     = "stale"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeUnknown   = "unknown_quadrant"
)

// ClassificationClient is the subset of the classification service client the
// engine needs. Defining it here avoids importing the integration package.
type ClassificationClient interface {
	Classify(ctx context.Context, candidates []models.Task) ([]models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// MetricsRecorder is the subset of the metrics collectors the engine updates.
type MetricsRecorder interface {
	AddReconciled(outcome string, n int)
	SetStoreSize(n int)
}

// EngineConfig holds the dependencies of an Engine. Logger, Events and
// Metrics are optional.
type EngineConfig struct {
	Store        storage.TaskStore
	Client       ClassificationClient
	IDGen        TaskIDGenerator
	Reconciler   *Reconciler
	Mode         models.SubmissionMode
	RemoteDelete bool

	Logger  *zap.Logger
	Events  EventLogger
	Metrics MetricsRecorder
}

// Engine drives one session: it drafts tasks into the store, submits them for
// classification, and reconciles responses. It never holds the store across a
// network call, so responses may be applied in any order.
type Engine struct {
	store        storage.TaskStore
	client       ClassificationClient
	idGen        TaskIDGenerator
	reconciler   *Reconciler
	mode         models.SubmissionMode
	remoteDelete bool

	logger  *zap.Logger
	events  EventLogger
	metrics MetricsRecorder
}

// NewEngine creates an Engine from cfg, filling in defaults for omitted parts.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		store:        cfg.Store,
		client:       cfg.Client,
		idGen:        cfg.IDGen,
		reconciler:   cfg.Reconciler,
		mode:         cfg.Mode,
		remoteDelete: cfg.RemoteDelete,
		logger:       cfg.Logger,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
	}
	if e.store == nil {
		e.store = storage.NewTaskStore()
	}
	if e.idGen == nil {
		e.idGen = NewTaskIDGenerator()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.reconciler == nil {
		e.reconciler = NewReconciler(e.logger)
	}
	if e.mode == "" {
		e.mode = models.SubmitSingle
	}
	return e
}

// Mode returns the configured submission mode.
func (e *Engine) Mode() models.SubmissionMode { return e.mode }

// Draft creates a task from text and inserts it, unclassified, at the end of
// the store so it is visible before the service answers.
func (e *Engine) Draft(text string) (models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, ErrEmptyText
	}

	task := models.Task{ID: e.idGen.NewID(), Text: text}
	if err := e.store.Add(task); err != nil {
		if !errors.Is(err, storage.ErrDuplicateID) {
			return models.Task{}, fmt.Errorf("drafting task: %w", err)
		}
		e.logger.Error("generated id already in store, regenerating", zap.String("task_id", task.ID))
		task.ID = e.idGen.NewID()
		if err := e.store.Add(task); err != nil {
			return models.Task{}, fmt.Errorf("drafting task: %w", err)
		}
	}

	e.logEvent(EventTaskDrafted, map[string]any{"task_id": task.ID, "text": task.Text})
	e.recordSize()
	return task, nil
}

// Candidates returns the tasks to submit for draft under the submission mode:
// the draft alone, or the whole store with the draft guaranteed present.
func (e *Engine) Candidates(draft models.Task) []models.Task {
	if e.mode != models.SubmitFull {
		return []models.Task{draft}
	}
	snap := e.store.Snapshot()
	for _, t := range snap {
		if t.ID == draft.ID {
			return snap
		}
	}
	return append(snap, draft)
}

// Submit sends candidates to the classification service. It does not touch
// the store; failures are logged and returned unchanged.
func (e *Engine) Submit(ctx context.Context, candidates []models.Task) ([]models.Task, error) {
	if e.client == nil {
		return nil, fmt.Errorf("classification client not configured")
	}
	resp, err := e.client.Classify(ctx, candidates)
	if err != nil {
		e.logger.Warn("classification failed", zap.Int("tasks", len(candidates)), zap.Error(err))
		e.logEvent(EventClassificationFailed, map[string]any{
			"task_ids": taskIDs(candidates),
			"error":    err.Error(),
		})
		return nil, err
	}
	return resp, nil
}

// Apply reconciles a classification response into the store.
func (e *Engine) Apply(response []models.Task) ReconcileResult {
	res := e.reconciler.Reconcile(e.store, response)

	if e.metrics != nil {
		e.metrics.AddReconciled(OutcomeUpdated, len(res.Updated))
		e.metrics.AddReconciled(OutcomeInserted, len(res.Inserted))
		e.metrics.AddReconciled(OutcomeStale, len(res.Stale))
		e.metrics.AddReconciled(OutcomeInvalid, res.Invalid)
		e.metrics.AddReconciled(OutcomeDuplicate, len(res.Duplicates))
		e.metrics.AddReconciled(OutcomeUnknown, len(res.UnknownQuadrants))
	}
	for _, id := range append(append([]string{}, res.Updated...), res.Inserted...) {
		if t, ok := e.store.Get(id); ok {
			e.logEvent(EventTaskClassified, map[string]any{
				"task_id":    t.ID,
				"quadrant":   string(t.Quadrant),
				"urgency":    t.Urgency,
				"importance": t.Importance,
			})
		}
	}
	e.recordSize()
	return res
}

// Add drafts text, submits it, and reconciles the answer. On a failed call the
// draft stays in the store unclassified and the error is returned.
func (e *Engine) Add(ctx context.Context, text string) (models.Task, error) {
	draft, err := e.Draft(text)
	if err != nil {
		return models.Task{}, err
	}

	resp, err := e.Submit(ctx, e.Candidates(draft))
	if err != nil {
		return draft, fmt.Errorf("classifying %q: %w", draft.Text, err)
	}
	e.Apply(resp)

	if current, ok := e.store.Get(draft.ID); ok {
		return current, nil
	}
	return draft, nil
}

// Delete removes the task locally, then, when remote delete is enabled, asks
// the service to drop its copy. Local deletion stands even if the remote call
// fails; that failure is returned as a warning.
func (e *Engine) Delete(ctx context.Context, id string) (bool, error) {
	removed := e.store.Remove(id)
	if removed {
		e.logEvent(EventTaskDeleted, map[string]any{"task_id": id})
		e.recordSize()
	}

	if !e.remoteDelete || e.client == nil {
		return removed, nil
	}
	if err := e.client.DeleteTask(ctx, id); err != nil {
		e.logger.Warn("remote delete failed", zap.String("task_id", id), zap.Error(err))
		e.logEvent(EventRemoteDeleteFailed, map[string]any{"task_id": id, "error": err.Error()})
		return removed, fmt.Errorf("remote delete of %s: %w", id, err)
	}
	return removed, nil
}

// Clear removes every task from the session.
func (e *Engine) Clear() int {
	n := e.store.Clear()
	e.logEvent(EventTasksCleared, map[string]any{"count": n})
	e.recordSize()
	return n
}

// Load merges the service's task list into the store.
func (e *Engine) Load(ctx context.Context) (ReconcileResult, error) {
	if e.client == nil {
		return ReconcileResult{}, fmt.Errorf("classification client not configured")
	}
	tasks, err := e.client.ListTasks(ctx)
	if err != nil {
		e.logger.Warn("loading tasks failed", zap.Error(err))
		return ReconcileResult{}, fmt.Errorf("loading tasks: %w", err)
	}
	res := e.Apply(tasks)
	e.logEvent(EventTasksLoaded, map[string]any{"count": len(tasks)})
	return res, nil
}

// Reclassify resubmits the whole store. An empty store is a no-op.
func (e *Engine) Reclassify(ctx context.Context) (ReconcileResult, error) {
	snap := e.store.Snapshot()
	if len(snap) == 0 {
		return ReconcileResult{}, nil
	}
	resp, err := e.Submit(ctx, snap)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reclassifying: %w", err)
	}
	return e.Apply(resp), nil
}

// Snapshot returns a copy of the tasks in store order.
func (e *Engine) Snapshot() []models.Task {
	return e.store.Snapshot()
}

// Matrix projects the current store into quadrants.
func (e *Engine) Matrix() Projection {
	return Project(e.store.Snapshot())
}

func (e *Engine) logEvent(eventType string, data map[string]any) {
	if e.events == nil {
		return
	}
	if err := e.events.LogEvent(eventType, data); err != nil {
		e.logger.Debug("writing event failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (e *Engine) recordSize() {
	if e.metrics != nil {
		e.metrics.SetStoreSize(e.store.Len())
	}
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

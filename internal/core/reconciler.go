package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/eisenhower/internal/storage"
	"github.com/valter-silva-au/eisenhower/pkg/models"
	"go.uber.org/zap"
)

// DuplicateIDError flags a classification response that names the same task
// twice. It is logged, never returned to the user.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate task id %s in classification response", e.ID)
}

// ReconcileResult summarizes one Reconcile call.
type ReconcileResult struct {
	Updated  []string
	Inserted []string
	// Stale lists IDs skipped because the user deleted them meanwhile.
	Stale []string
	// Invalid counts response entries without an ID, or new entries without text.
	Invalid int
	// Duplicates lists IDs that appeared more than once in the response.
	Duplicates []string
	// UnknownQuadrants lists IDs whose quadrant label was not recognised.
	UnknownQuadrants []string
}

// Changed reports whether the store was modified.
func (r ReconcileResult) Changed() bool {
	return len(r.Updated) > 0 || len(r.Inserted) > 0
}

// Reconciler merges classification responses into a TaskStore.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a Reconciler. A nil logger discards diagnostics.
func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger}
}

// Reconcile applies response to store by ID:
//   - a known ID gets Urgency, Importance (when non-zero) and Quadrant updated;
//     its ID and Text never change
//   - an unknown ID is appended, unless it was deleted, which makes it stale
//   - stored tasks missing from the response are left alone
//
// Quadrants are normalized case-insensitively; unrecognised labels become
// unset. The merged batch is committed with a single Upsert, so a response is
// applied entirely or not at all.
func (r *Reconciler) Reconcile(store storage.TaskStore, response []models.Task) ReconcileResult {
	var res ReconcileResult

	merged := make([]models.Task, 0, len(response))
	position := make(map[string]int, len(response))

	for _, incoming := range response {
		id := strings.TrimSpace(incoming.ID)
		if id == "" {
			res.Invalid++
			r.logger.Warn("dropping response task without id", zap.String("text", incoming.Text))
			continue
		}

		quadrant, ok := models.ParseQuadrant(string(incoming.Quadrant))
		if !ok && strings.TrimSpace(string(incoming.Quadrant)) != "" {
			res.UnknownQuadrants = append(res.UnknownQuadrants, id)
			r.logger.Warn("unknown quadrant label treated as unset",
				zap.String("task_id", id),
				zap.String("quadrant", string(incoming.Quadrant)),
			)
		}

		if i, seen := position[id]; seen {
			err := &DuplicateIDError{ID: id}
			res.Duplicates = append(res.Duplicates, id)
			r.logger.Error("invariant violated, coercing into update", zap.Error(err))
			merged[i] = applyScores(merged[i], incoming, quadrant)
			continue
		}

		base, found := store.Get(id)
		if !found {
			text := strings.TrimSpace(incoming.Text)
			if text == "" {
				res.Invalid++
				r.logger.Warn("dropping new response task without text", zap.String("task_id", id))
				continue
			}
			base = models.Task{ID: id, Text: text}
		}

		position[id] = len(merged)
		merged = append(merged, applyScores(base, incoming, quadrant))
	}

	if len(merged) == 0 {
		return res
	}

	up := store.Upsert(merged)
	res.Updated = up.Updated
	res.Inserted = up.Inserted
	res.Stale = up.Stale

	if len(res.Stale) > 0 {
		r.logger.Debug("ignored response for deleted tasks", zap.Strings("task_ids", res.Stale))
	}
	r.logger.Debug("reconciled classification response",
		zap.Int("updated", len(res.Updated)),
		zap.Int("inserted", len(res.Inserted)),
		zap.Int("stale", len(res.Stale)),
		zap.Int("invalid", res.Invalid),
	)
	return res
}

// applyScores copies the mutable fields from incoming onto base. Missing
// scores keep the previous value; the quadrant always follows the response.
func applyScores(base, incoming models.Task, quadrant models.Quadrant) models.Task {
	if incoming.Urgency != 0 {
		base.Urgency = incoming.Urgency
	}
	if incoming.Importance != 0 {
		base.Importance = incoming.Importance
	}
	base.Quadrant = quadrant
	return base
}

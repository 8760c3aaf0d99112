// Package storage holds the session's in-memory task collection.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/valter-silva-au/eisenhower/pkg/models"
)

// ErrDuplicateID is returned by Add when a task with the same ID is already stored.
var ErrDuplicateID = errors.New("duplicate task id")

// UpsertResult reports what an Upsert did with each incoming task.
type UpsertResult struct {
	Updated  []string
	Inserted []string
	// Stale holds IDs that were skipped because the task had been deleted.
	Stale []string
}

// TaskStore is the ordered collection of tasks for the running session. It is
// the single source of truth for rendering; all mutation goes through it.
type TaskStore interface {
	Add(task models.Task) error
	Remove(id string) bool
	Clear() int
	Upsert(tasks []models.Task) UpsertResult
	Get(id string) (models.Task, bool)
	IsRemoved(id string) bool
	Len() int
	Snapshot() []models.Task
}

type memoryTaskStore struct {
	mu    sync.RWMutex
	tasks []models.Task
	index map[string]int
	// removed tombstones deleted IDs so late responses cannot resurrect them.
	// It is never pruned: it grows by one entry per deleted ID and lives as
	// long as the store, which is one session.
	removed map[string]struct{}
}

// NewTaskStore creates an empty in-memory TaskStore.
func NewTaskStore() TaskStore {
	return &memoryTaskStore{
		index:   make(map[string]int),
		removed: make(map[string]struct{}),
	}
}

func (s *memoryTaskStore) Add(task models.Task) error {
	if task.ID == "" {
		return fmt.Errorf("adding task: ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[task.ID]; exists {
		return fmt.Errorf("adding task %s: %w", task.ID, ErrDuplicateID)
	}
	delete(s.removed, task.ID)
	s.index[task.ID] = len(s.tasks)
	s.tasks = append(s.tasks, task)
	return nil
}

// Remove deletes the task with the given ID. Removing an absent ID is a no-op.
// Either way the ID is tombstoned.
func (s *memoryTaskStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removed[id] = struct{}{}
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.reindex()
	return true
}

// Clear removes every task and returns how many were removed.
func (s *memoryTaskStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	for _, t := range s.tasks {
		s.removed[t.ID] = struct{}{}
	}
	s.tasks = nil
	s.index = make(map[string]int)
	return n
}

// Upsert applies tasks in a single critical section. Existing tasks get their
// Urgency, Importance and Quadrant replaced; ID and Text never change. Unknown
// IDs are appended unless tombstoned.
func (s *memoryTaskStore) Upsert(tasks []models.Task) UpsertResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res UpsertResult
	for _, t := range tasks {
		if i, ok := s.index[t.ID]; ok {
			existing := &s.tasks[i]
			existing.Urgency = t.Urgency
			existing.Importance = t.Importance
			existing.Quadrant = t.Quadrant
			res.Updated = append(res.Updated, t.ID)
			continue
		}
		if _, gone := s.removed[t.ID]; gone {
			res.Stale = append(res.Stale, t.ID)
			continue
		}
		s.index[t.ID] = len(s.tasks)
		s.tasks = append(s.tasks, t)
		res.Inserted = append(res.Inserted, t.ID)
	}
	return res
}

func (s *memoryTaskStore) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

func (s *memoryTaskStore) IsRemoved(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, gone := s.removed[id]
	return gone
}

func (s *memoryTaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Snapshot returns a copy of the tasks in store order.
func (s *memoryTaskStore) Snapshot() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *memoryTaskStore) reindex() {
	s.index = make(map[string]int, len(s.tasks))
	for i, t := range s.tasks {
		s.index[t.ID] = i
	}
}

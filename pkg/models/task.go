package models

import "strings"

// Quadrant is one of the four Eisenhower priority buckets a task is classified into.
type Quadrant string

const (
	QuadrantDoNow     Quadrant = "Do Now"
	QuadrantSchedule  Quadrant = "Schedule"
	QuadrantDelegate  Quadrant = "Delegate"
	QuadrantEliminate Quadrant = "Eliminate"

	// QuadrantUnset marks a task that has not been classified yet.
	QuadrantUnset Quadrant = ""
)

// Quadrants lists the canonical labels in display order.
var Quadrants = []Quadrant{
	QuadrantDoNow,
	QuadrantSchedule,
	QuadrantDelegate,
	QuadrantEliminate,
}

// ParseQuadrant matches s case-insensitively (ignoring surrounding whitespace)
// against the canonical labels. Unknown labels yield QuadrantUnset and false.
func ParseQuadrant(s string) (Quadrant, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return QuadrantUnset, false
	}
	for _, q := range Quadrants {
		if strings.EqualFold(trimmed, string(q)) {
			return q, true
		}
	}
	return QuadrantUnset, false
}

// NormalizeQuadrant returns the canonical form of q, or QuadrantUnset when q
// is not a recognised label.
func NormalizeQuadrant(q Quadrant) Quadrant {
	canonical, _ := ParseQuadrant(string(q))
	return canonical
}

// IsClassified reports whether q is one of the four canonical labels.
func (q Quadrant) IsClassified() bool {
	_, ok := ParseQuadrant(string(q))
	return ok
}

// Task is a single user-entered item tracked by the matrix. Urgency and
// Importance are zero until the classification service fills them in.
type Task struct {
	ID         string   `json:"id" yaml:"id"`
	Text       string   `json:"text" yaml:"text"`
	Urgency    int      `json:"urgency,omitempty" yaml:"urgency,omitempty"`
	Importance int      `json:"importance,omitempty" yaml:"importance,omitempty"`
	Quadrant   Quadrant `json:"quadrant,omitempty" yaml:"quadrant,omitempty"`
}

// IsClassified reports whether the task carries a canonical quadrant.
func (t Task) IsClassified() bool {
	return t.Quadrant.IsClassified()
}

package core

import "github.com/valter-silva-au/eisenhower/pkg/models"

// Projection groups tasks for display. Quadrants always holds all four
// canonical labels, even when a bucket is empty.
type Projection struct {
	Quadrants    map[models.Quadrant][]models.Task
	Unclassified []models.Task
}

// Project buckets tasks by normalized quadrant, keeping their relative order.
// Tasks with an unset or unrecognised quadrant go to Unclassified.
func Project(tasks []models.Task) Projection {
	p := Projection{
		Quadrants: make(map[models.Quadrant][]models.Task, len(models.Quadrants)),
	}
	for _, q := range models.Quadrants {
		p.Quadrants[q] = []models.Task{}
	}

	for _, t := range tasks {
		q := models.NormalizeQuadrant(t.Quadrant)
		if q == models.QuadrantUnset {
			p.Unclassified = append(p.Unclassified, t)
			continue
		}
		p.Quadrants[q] = append(p.Quadrants[q], t)
	}
	return p
}

// Total returns the number of tasks in the projection.
func (p Projection) Total() int {
	n := len(p.Unclassified)
	for _, tasks := range p.Quadrants {
		n += len(tasks)
	}
	return n
}

package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// TaskIDGenerator defines the interface for generating unique task IDs.
type TaskIDGenerator interface {
	NewID() string
}

// uuidTaskIDGenerator issues random (version 4) UUIDs.
type uuidTaskIDGenerator struct {
	// newRandom is swapped in tests to simulate an unavailable entropy source.
	newRandom func() (uuid.UUID, error)
}

// NewTaskIDGenerator creates a TaskIDGenerator backed by crypto/rand UUIDs.
func NewTaskIDGenerator() TaskIDGenerator {
	return &uuidTaskIDGenerator{newRandom: uuid.NewRandom}
}

// NewID returns a new 128-bit random identifier. If the secure random source
// fails, it falls back to a nanosecond timestamp joined with a pseudo-random
// suffix, which is still unique in practice within a process.
func (g *uuidTaskIDGenerator) NewID() string {
	id, err := g.newRandom()
	if err == nil {
		return id.String()
	}
	return fmt.Sprintf("%x-%016x", time.Now().UnixNano(), rand.Uint64())
}

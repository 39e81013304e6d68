package pipeline

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// Job and run IDs are ULIDs drawn from one monotonic source, so IDs created
// in the same millisecond still sort in creation order.
var (
	ulidMu  sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewID returns a fresh job ID.
func NewID() string { return generateULID() }

// ValidID reports whether id has the shape of a generated job ID.
func ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

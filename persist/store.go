package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/tricycle-learn/tricycle"
)

// Sentinel errors for the persist package.
var (
	ErrNoSnapshot   = errors.New("persist: no snapshot found")
	ErrStoreClosed  = errors.New("persist: store closed")
	ErrInvalidInput = errors.New("persist: invalid input")
)

// Store is one persistence tier. Implementations absorb transient faults
// where they can; the Coordinator treats every tier as best-effort.
//
// Save must be idempotent: re-writing the same snapshot is harmless, so
// retries and duplicate in-flight writes are safe.
type Store interface {
	Name() string
	Save(ctx context.Context, snap tricycle.Snapshot) error
	Load(ctx context.Context) (*tricycle.Snapshot, error)
	Close() error
}

// snapshotKeys returns the storage keys to probe for a user, in priority
// order. The unscoped legacy key is kept so sessions written before
// per-user keying still load.
func snapshotKeys(userID string) []string {
	if userID == "" {
		return []string{"tricycle:state"}
	}
	return []string{
		fmt.Sprintf("tricycle:state:%s", userID),
		"tricycle:state",
	}
}

package syncer

import (
	"errors"
	"fmt"

	"github.com/charlie0129/timer24h/pkg/store"
)

var (
	// ErrNotFound is returned by Remote.Get for identifiers the remote store
	// does not know.
	ErrNotFound = errors.New("schedule not found")

	ErrBusy      = store.ErrBusy
	ErrClosed    = store.ErrClosed
	ErrNoSession = store.ErrNoSession
)

// RemoteError is a failed call to the remote store. The store and the edit
// buffer are left in their last known good state.
type RemoteError struct {
	Op  string
	ID  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.ID, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// PartialCommitError means the schedule body was committed but the
// conditions were not: the authoritative copy has the new body and the old
// conditions, and the edit buffer still holds the new conditions.
type PartialCommitError struct {
	ID  string
	Err error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("schedule %s saved but its conditions were not: %v", e.ID, e.Err)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }

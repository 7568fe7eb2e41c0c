// Package storage persists the schedules served by the daemon.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// ErrNotFound is returned for identifiers that are not stored.
var ErrNotFound = errors.New("schedule not found")

// Backend stores whole schedules keyed by id. List returns them in creation
// order; Put on an existing id keeps its position.
type Backend interface {
	List(ctx context.Context) ([]schedule.Schedule, error)
	Get(ctx context.Context, id string) (schedule.Schedule, error)
	Put(ctx context.Context, s schedule.Schedule) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open returns the backend for driver, storing its data at path.
func Open(driver, path string) (Backend, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverFile:
		return OpenFile(path)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

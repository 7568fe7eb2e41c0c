package client

import (
	"errors"

	"github.com/charlie0129/timer24h/pkg/syncer"
)

var (
	// ErrDaemonNotRunning is returned when the daemon is not running
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied is returned when the user does not have permission to perform the requested action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when 404 is returned from the daemon
	ErrNotFound = syncer.ErrNotFound

	// ErrBadRequest is returned when the daemon rejected the payload
	ErrBadRequest = errors.New("bad request")
)

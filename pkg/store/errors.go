package store

import "errors"

var (
	// ErrBusy is returned when another operation for the same schedule is
	// still outstanding.
	ErrBusy = errors.New("schedule is busy")

	// ErrUnknownSchedule is returned for identifiers the store does not hold.
	ErrUnknownSchedule = errors.New("unknown schedule")

	// ErrNoSelection is returned when an operation needs a selected schedule.
	ErrNoSelection = errors.New("no schedule selected")

	// ErrNoSession is returned when an operation needs an open edit session.
	ErrNoSession = errors.New("no schedule is being edited")

	// ErrClosed is returned once the store has been torn down.
	ErrClosed = errors.New("store closed")
)

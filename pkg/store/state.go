package store

import "fmt"

// State is the lifecycle position of one schedule in the store.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	LoadError
	Editing
	Saving
	Deleting
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadError:
		return "load-error"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Deleting:
		return "deleting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Busy reports whether a remote call is outstanding in this state.
func (s State) Busy() bool {
	return s == Loading || s == Saving || s == Deleting
}

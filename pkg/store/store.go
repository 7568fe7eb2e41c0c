// Package store holds the client-side cache of schedules: the authoritative
// copies last confirmed by the remote store, the per-schedule lifecycle
// state, the selection and the single open edit session.
package store

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

type entry struct {
	sched  schedule.Schedule
	loaded bool // sched holds a confirmed copy
	draft  bool // created locally, never committed
	state  State
	err    error
}

// Store is safe for concurrent use. Values never leave or enter it without
// being cloned.
type Store struct {
	mu       sync.Mutex
	order    []string
	entries  map[string]*entry
	selected string
	session  *Session
	closed   bool

	log logrus.FieldLogger
}

// New returns an empty store.
func New(log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		entries: make(map[string]*entry),
		log:     log,
	}
}

// Get returns the authoritative copy of a schedule.
func (s *Store) Get(id string) (schedule.Schedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || !e.loaded {
		return schedule.Schedule{}, false
	}
	return e.sched.Clone(), true
}

// Has reports whether an authoritative copy exists.
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// IDs returns the known identifiers in remote list order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of authoritative copies.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// All returns every authoritative copy in list order.
func (s *Store) All() []schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]schedule.Schedule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].sched.Clone())
	}
	return out
}

// State returns the lifecycle state of id. Unknown ids are Unloaded.
func (s *Store) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		return e.state
	}
	return Unloaded
}

// Err returns the last error surfaced for id.
func (s *Store) Err(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		return e.err
	}
	return nil
}

// Selected returns the selected identifier.
func (s *Store) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != ""
}

// Session returns the open edit session, or nil.
func (s *Store) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Select points the selection at id. An edit session on another schedule is
// discarded without merging.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[id]
	if !ok || (!e.loaded && !e.draft) {
		return ErrUnknownSchedule
	}
	if s.selected == id {
		return nil
	}
	if err := s.discardSessionLocked(); err != nil {
		return err
	}

	s.selected = id
	s.log.WithField("schedule", id).Debug("schedule selected")
	return nil
}

// OpenSession starts editing the selected schedule. The buffer is cloned from
// the authoritative copy. An already open session is returned as is.
func (s *Store) OpenSession() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.selected == "" {
		return nil, ErrNoSelection
	}
	if s.session != nil {
		return s.session, nil
	}

	e, ok := s.entries[s.selected]
	if !ok || !e.loaded {
		return nil, ErrUnknownSchedule
	}
	if e.state.Busy() {
		return nil, ErrBusy
	}

	e.state = Editing
	s.session = newSession(e.sched, false)
	s.log.WithFields(logrus.Fields{
		"schedule": s.selected,
		"session":  s.session.ID(),
	}).Debug("edit session opened")
	return s.session, nil
}

// OpenDraft registers a new identifier and starts editing a blank schedule
// for it. Nothing is stored until the draft is saved.
func (s *Store) OpenDraft(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if err := schedule.ValidateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	// an entry left behind by a failed load is not a schedule
	if e, ok := s.entries[id]; ok {
		if e.loaded || e.draft {
			return nil, &schedule.ValidationError{Field: "schedule_id", Reason: "schedule " + id + " already exists"}
		}
		if e.state.Busy() {
			return nil, ErrBusy
		}
	}
	if err := s.discardSessionLocked(); err != nil {
		return nil, err
	}

	s.entries[id] = &entry{sched: schedule.New(id), draft: true, state: Editing}
	s.selected = id
	s.session = newSession(schedule.New(id), true)
	s.log.WithFields(logrus.Fields{
		"schedule": id,
		"session":  s.session.ID(),
	}).Debug("draft schedule created")
	return s.session, nil
}

// DiscardSession throws away the edit buffer.
func (s *Store) DiscardSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discardSessionLocked()
}

func (s *Store) discardSessionLocked() error {
	if s.session == nil {
		return nil
	}

	id := s.session.ScheduleID()
	e, ok := s.entries[id]
	if ok && e.state.Busy() {
		return ErrBusy
	}

	if ok {
		if e.draft {
			delete(s.entries, id)
			if s.selected == id {
				s.selected = ""
			}
		} else {
			e.state = Loaded
		}
	}

	s.log.WithFields(logrus.Fields{
		"schedule": id,
		"session":  s.session.ID(),
	}).Debug("edit session discarded")
	s.session = nil
	return nil
}

// Close tears the store down. Completions arriving afterwards are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) sessionFor(id string) *Session {
	if s.session != nil && s.session.ScheduleID() == id {
		return s.session
	}
	return nil
}

// sortedIDsLocked returns every entry id, list order first, then the rest
// sorted, so iteration is deterministic.
func (s *Store) sortedIDsLocked() []string {
	ids := append([]string(nil), s.order...)
	var rest []string
	for id := range s.entries {
		if !slices.Contains(s.order, id) {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(ids, rest...)
}

func (s *Store) appendOrder(id string) {
	for _, v := range s.order {
		if v == id {
			return
		}
	}
	s.order = append(s.order, id)
}

func (s *Store) removeOrder(id string) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			return
		}
	}
}

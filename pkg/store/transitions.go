package store

import (
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

// Begin marks id as having a remote call of kind op (Loading, Saving or
// Deleting) outstanding and returns the state to restore on failure. Only
// one call per schedule may be outstanding.
func (s *Store) Begin(id string, op State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Unloaded, ErrClosed
	}

	e, ok := s.entries[id]
	if !ok {
		if op != Loading {
			return Unloaded, ErrUnknownSchedule
		}
		e = &entry{state: Unloaded}
		s.entries[id] = e
	}
	if e.state.Busy() {
		return e.state, ErrBusy
	}

	prior := e.state
	e.state = op
	if sess := s.sessionFor(id); sess != nil && op != Loading {
		sess.setLocked(true)
	}

	s.log.WithFields(logrus.Fields{
		"schedule": id,
		"from":     prior.String(),
		"to":       op.String(),
	}).Debug("schedule state changed")
	return prior, nil
}

// FinishLoad stores a freshly fetched copy.
func (s *Store) FinishLoad(id string, sched schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	e.sched = sched.Clone()
	e.loaded = true
	e.draft = false
	e.err = nil
	e.state = Loaded
	if s.sessionFor(id) != nil {
		e.state = Editing
	}
	s.appendOrder(id)
	return nil
}

// FailLoad records a failed fetch. The stored copy, if any, is kept.
func (s *Store) FailLoad(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.err = err
	e.state = LoadError
	if s.sessionFor(id) != nil {
		e.state = Editing
	}
}

// CommitBody applies a confirmed set-schedule call to the authoritative copy.
// A draft becomes a regular stored schedule at this point.
func (s *Store) CommitBody(id string, body schedule.Body) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	e, ok := s.entries[id]
	if !ok {
		e = &entry{sched: schedule.New(id), state: Saving}
		s.entries[id] = e
	}
	if !e.loaded {
		e.sched = schedule.New(id)
	}
	e.sched = e.sched.WithBody(body)
	e.loaded = true
	e.draft = false
	s.appendOrder(id)

	if sess := s.sessionFor(id); sess != nil {
		sess.committed()
	}
	return nil
}

// CommitConditions applies a confirmed set-conditions call.
func (s *Store) CommitConditions(id string, cs schedule.Conditions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[id]
	if !ok || !e.loaded {
		return ErrUnknownSchedule
	}
	e.sched.Conditions = cs.Clone()
	return nil
}

// FinishSave completes a successful save: the schedule is Loaded again and
// the edit buffer is dropped.
func (s *Store) FinishSave(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if e, ok := s.entries[id]; ok {
		e.state = Loaded
		e.err = nil
	}
	if sess := s.sessionFor(id); sess != nil {
		s.log.WithFields(logrus.Fields{
			"schedule": id,
			"session":  sess.ID(),
		}).Debug("edit session committed")
		s.session = nil
	}
	return nil
}

// AbortSave returns to Editing and keeps the buffer so no work is lost.
func (s *Store) AbortSave(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.err = err
	e.state = Loaded
	if sess := s.sessionFor(id); sess != nil {
		e.state = Editing
		sess.setLocked(false)
	}
}

// FinishDelete drops id after the remote store confirmed the deletion.
func (s *Store) FinishDelete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	delete(s.entries, id)
	s.removeOrder(id)
	if s.sessionFor(id) != nil {
		s.session = nil
	}
	if s.selected == id {
		s.selected = ""
	}
	return nil
}

// Restore puts id back into prior after a failed call other than a load or
// save, e.g. a failed delete. The entity stays in the store.
func (s *Store) Restore(id string, prior State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.state = prior
	e.err = err
	if sess := s.sessionFor(id); sess != nil {
		sess.setLocked(false)
	}
}

// ApplyEnabled records a confirmed enable/disable and returns to prior. The
// buffer of an open session follows the confirmed value.
func (s *Store) ApplyEnabled(id string, prior State, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	e, ok := s.entries[id]
	if !ok {
		return ErrUnknownSchedule
	}
	e.sched.Enabled = enabled
	e.state = prior
	e.err = nil
	if sess := s.sessionFor(id); sess != nil {
		sess.syncEnabled(enabled)
		sess.setLocked(false)
	}
	return nil
}

// ReplaceAll swaps the whole set of authoritative copies in one step and
// applies the selection rules: a surviving selection is kept, a vanished one
// is cleared, and with no prior selection the first schedule is selected.
// Drafts and open edit buffers are never touched.
func (s *Store) ReplaceAll(scheds []schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	entries := make(map[string]*entry, len(scheds))
	order := make([]string, 0, len(scheds))
	for _, sched := range scheds {
		if _, dup := entries[sched.ID]; dup {
			continue
		}
		state := Loaded
		if old, ok := s.entries[sched.ID]; ok && (old.state == Editing || old.state.Busy()) {
			state = old.state
		}
		entries[sched.ID] = &entry{sched: sched.Clone(), loaded: true, state: state}
		order = append(order, sched.ID)
	}

	// keep drafts the remote store does not know about yet, and schedules
	// whose save is still in flight; the save will recreate them remotely
	for _, id := range s.sortedIDsLocked() {
		old := s.entries[id]
		if _, ok := entries[id]; ok {
			continue
		}
		switch {
		case old.draft:
			entries[id] = old
		case old.state == Saving:
			entries[id] = old
			order = append(order, id)
		}
	}

	prev := s.selected
	if sess := s.session; sess != nil {
		if _, ok := entries[sess.ScheduleID()]; !ok {
			s.session = nil
		} else if e := entries[sess.ScheduleID()]; !e.draft && e.state == Loaded {
			e.state = Editing
		}
	}
	if sess := s.session; sess != nil && sess.Draft() {
		if e := entries[sess.ScheduleID()]; !e.draft {
			// someone else created the same id; keep editing it as a stored schedule
			sess.committed()
		}
	}

	s.entries = entries
	s.order = order

	switch {
	case prev != "":
		if _, ok := entries[prev]; !ok {
			s.selected = ""
		}
	case len(order) > 0:
		s.selected = order[0]
	}

	s.log.WithFields(logrus.Fields{
		"count":    len(order),
		"selected": s.selected,
	}).Debug("store refreshed")
	return nil
}

package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

// Session is the edit buffer: a private working copy of one schedule. Edits
// made here are invisible to the store until a save commits them.
type Session struct {
	id string

	mu      sync.Mutex
	buf     schedule.Schedule
	painter schedule.Painter
	draft   bool
	dirty   bool
	locked  bool
}

func newSession(s schedule.Schedule, draft bool) *Session {
	return &Session{
		id:    uuid.NewString(),
		buf:   s.Clone(),
		draft: draft,
		dirty: draft,
	}
}

// ID identifies this editing session in logs.
func (s *Session) ID() string {
	return s.id
}

// ScheduleID returns the identifier of the schedule being edited.
func (s *Session) ScheduleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.ID
}

// Draft reports whether the schedule has never been committed remotely.
func (s *Session) Draft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Dirty reports whether the buffer was modified since it was opened.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Snapshot returns a copy of the buffer.
func (s *Session) Snapshot() schedule.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Clone()
}

// mutate runs fn on the buffer unless a commit is in flight.
func (s *Session) mutate(fn func(buf *schedule.Schedule) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrBusy
	}
	if err := fn(&s.buf); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// BeginPaint starts a drag gesture at slot index.
func (s *Session) BeginPaint(index int) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		if err := s.painter.Begin(buf.Slots, index); err != nil {
			return err
		}
		buf.Slots = s.painter.Current()
		return nil
	})
}

// ExtendPaint moves the active gesture to slot index.
func (s *Session) ExtendPaint(index int) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		if err := s.painter.Extend(index); err != nil {
			return err
		}
		if s.painter.Active() {
			buf.Slots = s.painter.Current()
		}
		return nil
	})
}

// EndPaint finishes the gesture. It reports whether one was active.
func (s *Session) EndPaint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.painter.End()
	return ok
}

// LeavePaint ends the gesture because the pointer left the editing surface.
func (s *Session) LeavePaint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.painter.Leave()
	return ok
}

// Painting reports whether a gesture is in progress.
func (s *Session) Painting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.painter.Active()
}

// Toggle flips a single slot.
func (s *Session) Toggle(index int) error {
	if err := s.BeginPaint(index); err != nil {
		return err
	}
	s.EndPaint()
	return nil
}

// SetRange sets every slot in the inclusive range [from, to] to value.
func (s *Session) SetRange(from, to int, value bool) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		if err := schedule.ValidateSlot(from); err != nil {
			return err
		}
		if err := schedule.ValidateSlot(to); err != nil {
			return err
		}
		if from > to {
			from, to = to, from
		}
		slots := buf.Slots
		for i := from; i <= to; i++ {
			slots[i] = value
		}
		buf.Slots = slots
		return nil
	})
}

func (s *Session) SetTarget(target string) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		buf.Target = target
		return nil
	})
}

func (s *Session) SetEnabled(enabled bool) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		buf.Enabled = enabled
		return nil
	})
}

// SetTimezone sets the schedule timezone; "" inherits the host default.
func (s *Session) SetTimezone(tz string) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		if tz == "" {
			buf.Timezone = nil
			return nil
		}
		buf.Timezone = &tz
		return nil
	})
}

// AddCondition appends a default condition and returns its index.
func (s *Session) AddCondition() (int, error) {
	var idx int
	err := s.mutate(func(buf *schedule.Schedule) error {
		buf.Conditions = buf.Conditions.Add()
		idx = len(buf.Conditions) - 1
		return nil
	})
	return idx, err
}

func (s *Session) RemoveCondition(index int) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		cs, err := buf.Conditions.Remove(index)
		if err != nil {
			return err
		}
		buf.Conditions = cs
		return nil
	})
}

func (s *Session) UpdateCondition(index int, field schedule.Field, value string) error {
	return s.mutate(func(buf *schedule.Schedule) error {
		cs, err := buf.Conditions.Update(index, field, value)
		if err != nil {
			return err
		}
		buf.Conditions = cs
		return nil
	})
}

func (s *Session) setLocked(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = locked
}

func (s *Session) committed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = false
}

// syncEnabled mirrors an enable/disable confirmed by the remote store.
func (s *Session) syncEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Enabled = enabled
}

package store

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

func newSched(id, target string, on ...int) schedule.Schedule {
	s := schedule.New(id)
	s.Target = target
	for _, i := range on {
		s.Slots[i] = true
	}
	return s
}

func newTestStore(t *testing.T, scheds ...schedule.Schedule) *Store {
	t.Helper()
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	s := New(l)
	require.NoError(t, s.ReplaceAll(scheds))
	return s
}

func TestReplaceAllSelectsFirst(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"), newSched("evening", "switch.b"))

	id, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "morning", id)
	assert.Equal(t, []string{"morning", "evening"}, s.IDs())
	assert.Equal(t, Loaded, s.State("evening"))
	assert.Equal(t, Unloaded, s.State("nope"))
}

func TestReplaceAllSelectionRules(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"), newSched("evening", "switch.b"))
	require.NoError(t, s.Select("evening"))

	require.NoError(t, s.ReplaceAll([]schedule.Schedule{newSched("morning", "switch.a"), newSched("evening", "switch.c")}))
	id, _ := s.Selected()
	assert.Equal(t, "evening", id)

	require.NoError(t, s.ReplaceAll([]schedule.Schedule{newSched("morning", "switch.a")}))
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.False(t, s.Has("evening"))
}

func TestSessionIsIsolatedFromStore(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"))

	sess, err := s.OpenSession()
	require.NoError(t, err)
	assert.Equal(t, Editing, s.State("morning"))

	require.NoError(t, sess.SetRange(10, 15, true))
	stored, _ := s.Get("morning")
	assert.Zero(t, stored.Slots.Count())
	assert.Equal(t, 6, sess.Snapshot().Slots.Count())
	assert.True(t, sess.Dirty())

	// a refresh replaces the authoritative copy but not the buffer
	require.NoError(t, s.ReplaceAll([]schedule.Schedule{newSched("morning", "switch.z", 0)}))
	stored, _ = s.Get("morning")
	assert.Equal(t, "switch.z", stored.Target)
	assert.Equal(t, "switch.a", sess.Snapshot().Target)
	assert.Equal(t, Editing, s.State("morning"))
	assert.Same(t, sess, s.Session())
}

func TestSessionPaintGesture(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"))
	sess, err := s.OpenSession()
	require.NoError(t, err)

	require.NoError(t, sess.BeginPaint(10))
	require.NoError(t, sess.ExtendPaint(15))
	assert.True(t, sess.Painting())
	assert.True(t, sess.EndPaint())
	assert.False(t, sess.EndPaint())

	slots := sess.Snapshot().Slots
	for i := 0; i < schedule.SlotsPerDay; i++ {
		assert.Equal(t, i >= 10 && i <= 15, slots[i], "slot %d", i)
	}

	require.NoError(t, sess.Toggle(10))
	assert.False(t, sess.Snapshot().Slots[10])
}

func TestSessionLeavePaintKeepsRange(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a", 12))
	sess, err := s.OpenSession()
	require.NoError(t, err)

	require.NoError(t, sess.BeginPaint(40))
	require.NoError(t, sess.ExtendPaint(47))
	assert.True(t, sess.LeavePaint())
	assert.False(t, sess.Painting())
	assert.False(t, sess.LeavePaint())

	// the pointer is gone, later moves change nothing
	require.NoError(t, sess.ExtendPaint(30))
	slots := sess.Snapshot().Slots
	for i := 0; i < schedule.SlotsPerDay; i++ {
		assert.Equal(t, i == 12 || i >= 40, slots[i], "slot %d", i)
	}
	assert.True(t, sess.Dirty())
}

func TestSelectDiscardsOtherSession(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"), newSched("evening", "switch.b"))
	sess, err := s.OpenSession()
	require.NoError(t, err)
	require.NoError(t, sess.SetTarget("switch.x"))

	require.NoError(t, s.Select("evening"))
	assert.Nil(t, s.Session())
	assert.Equal(t, Loaded, s.State("morning"))
	stored, _ := s.Get("morning")
	assert.Equal(t, "switch.a", stored.Target)

	assert.ErrorIs(t, s.Select("nope"), ErrUnknownSchedule)
}

func TestBusyRejectsSecondOperation(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"))
	sess, err := s.OpenSession()
	require.NoError(t, err)

	prior, err := s.Begin("morning", Saving)
	require.NoError(t, err)
	assert.Equal(t, Editing, prior)

	_, err = s.Begin("morning", Deleting)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, sess.SetTarget("switch.b"), ErrBusy)
	assert.ErrorIs(t, s.DiscardSession(), ErrBusy)

	s.AbortSave("morning", errors.New("boom"))
	assert.Equal(t, Editing, s.State("morning"))
	assert.EqualError(t, s.Err("morning"), "boom")
	require.NoError(t, sess.SetTarget("switch.b"))
}

func TestDraftLifecycle(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"))

	_, err := s.OpenDraft("morning")
	assert.ErrorIs(t, err, schedule.ErrValidation)
	_, err = s.OpenDraft("   ")
	assert.ErrorIs(t, err, schedule.ErrValidation)

	sess, err := s.OpenDraft("  night ")
	require.NoError(t, err)
	assert.Equal(t, "night", sess.ScheduleID())
	assert.True(t, sess.Draft())
	assert.False(t, s.Has("night"))
	id, _ := s.Selected()
	assert.Equal(t, "night", id)

	// refresh keeps the draft selected
	require.NoError(t, s.ReplaceAll([]schedule.Schedule{newSched("morning", "switch.a")}))
	id, _ = s.Selected()
	assert.Equal(t, "night", id)
	assert.Same(t, sess, s.Session())

	require.NoError(t, s.DiscardSession())
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, Unloaded, s.State("night"))
}

func TestCommitDraft(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.OpenDraft("night")
	require.NoError(t, err)
	require.NoError(t, sess.SetTarget("switch.pump"))

	_, err = s.Begin("night", Saving)
	require.NoError(t, err)
	require.NoError(t, s.CommitBody("night", sess.Snapshot().Body()))
	assert.False(t, sess.Draft())
	require.NoError(t, s.FinishSave("night"))

	assert.Nil(t, s.Session())
	stored, ok := s.Get("night")
	require.True(t, ok)
	assert.Equal(t, "switch.pump", stored.Target)
	assert.Equal(t, []string{"night"}, s.IDs())
	assert.Equal(t, Loaded, s.State("night"))
}

func TestFailedDeleteKeepsEntity(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"))

	prior, err := s.Begin("morning", Deleting)
	require.NoError(t, err)
	s.Restore("morning", prior, errors.New("offline"))

	assert.True(t, s.Has("morning"))
	assert.Equal(t, Loaded, s.State("morning"))
	require.Error(t, s.Err("morning"))

	_, err = s.Begin("morning", Deleting)
	require.NoError(t, err)
	require.NoError(t, s.FinishDelete("morning"))
	assert.False(t, s.Has("morning"))
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestClosedStoreIgnoresCompletions(t *testing.T) {
	s := newTestStore(t, newSched("morning", "switch.a"))
	_, err := s.Begin("morning", Loading)
	require.NoError(t, err)

	s.Close()
	assert.ErrorIs(t, s.FinishLoad("morning", newSched("morning", "switch.z")), ErrClosed)
	assert.ErrorIs(t, s.ReplaceAll(nil), ErrClosed)

	stored, _ := s.Get("morning")
	assert.Equal(t, "switch.a", stored.Target)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "load-error", LoadError.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.True(t, Deleting.Busy())
	assert.False(t, Editing.Busy())
}

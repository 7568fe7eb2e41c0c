package daemon

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// slotBoundaryExpr fires at the start of every half-hour slot.
const slotBoundaryExpr = "0,30 * * * *"

// boundarySpec returns slotBoundaryExpr evaluated in loc.
func boundarySpec(loc *time.Location) string {
	if loc == nil || loc == time.Local {
		return slotBoundaryExpr
	}
	return "CRON_TZ=" + loc.String() + " " + slotBoundaryExpr
}

// BoundaryTicker calls fire at every slot boundary of its location. A host
// that slept through several boundaries gets a single call on wake-up.
type BoundaryTicker struct {
	fire func(at time.Time)

	mu       sync.Mutex
	loc      *time.Location
	schedule cron.Schedule
	next     time.Time
	running  bool

	resetCh chan struct{}
	stopCh  chan struct{}
}

func NewBoundaryTicker(loc *time.Location, fire func(at time.Time)) (*BoundaryTicker, error) {
	if fire == nil {
		panic("fire function cannot be nil")
	}

	t := &BoundaryTicker{
		fire:    fire,
		resetCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	if err := t.SetLocation(loc); err != nil {
		return nil, err
	}
	return t, nil
}

// SetLocation moves the boundaries to loc. A running ticker re-arms at once.
func (t *BoundaryTicker) SetLocation(loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	sched, err := cron.ParseStandard(boundarySpec(loc))
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.loc = loc
	t.schedule = sched
	t.next = sched.Next(time.Now())
	t.mu.Unlock()

	select {
	case t.resetCh <- struct{}{}:
	default:
	}
	return nil
}

// Location returns the location boundaries are computed in.
func (t *BoundaryTicker) Location() *time.Location {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loc
}

// Next returns the upcoming boundary.
func (t *BoundaryTicker) Next() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

func (t *BoundaryTicker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *BoundaryTicker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	go t.loop()
}

func (t *BoundaryTicker) Stop() {
	select {
	case <-t.stopCh: // already closed
	default:
		close(t.stopCh)
	}
}

func (t *BoundaryTicker) loop() {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		logrus.Debug("boundary ticker stopped")
	}()

	logrus.Debug("boundary ticker started")

	for {
		at := t.Next()
		timer := time.NewTimer(max(time.Until(at), 0))

		select {
		case <-timer.C:
			logrus.WithField("at", at.Format(time.DateTime)).Debug("slot boundary reached")
			go t.fire(at)
			t.advance(at)
		case <-t.resetCh:
			timer.Stop()
		case <-t.stopCh:
			timer.Stop()
			return
		}
	}
}

// advance moves past both the boundary that just fired and now.
func (t *BoundaryTicker) advance(fired time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// SetLocation raced with the timer and already picked a new boundary.
	if !t.next.Equal(fired) {
		return
	}
	next := t.schedule.Next(fired)
	if now := time.Now(); next.Before(now) {
		next = t.schedule.Next(now)
	}
	t.next = next
}

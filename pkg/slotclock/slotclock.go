// Package slotclock maps wall-clock time onto the 48 half-hour slots of a
// day and keeps track of the current one.
package slotclock

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

// DefaultInterval is how often Run re-reads the clock. Consumers may see a
// slot that is up to one interval stale.
const DefaultInterval = 30 * time.Second

// boundaries fires at every slot boundary, in the location of the time
// passed to Next.
var boundaries = mustParse("0,30 * * * *")

func mustParse(spec string) cron.Schedule {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// SlotAt returns the slot containing t, in t's location.
func SlotAt(t time.Time) int {
	slot, _ := schedule.SlotFromHourMinute(t.Hour(), t.Minute())
	return slot
}

// NextBoundary returns the start of the slot following the one containing t.
// After 23:30 this is midnight of the next day.
func NextBoundary(t time.Time) time.Time {
	return boundaries.Next(t)
}

type Option func(*Resolver)

func WithInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLocation evaluates slots in loc instead of the local timezone.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// OnChange registers fn to be called with the new slot whenever it changes.
func OnChange(fn func(slot int)) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.onChange = append(r.onChange, fn)
		}
	}
}

// Resolver tracks the current slot.
type Resolver struct {
	interval time.Duration
	loc      *time.Location
	now      func() time.Time
	onChange []func(int)

	mu       sync.RWMutex
	current  int
	resolved bool
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		interval: DefaultInterval,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Location returns the timezone slots are evaluated in.
func (r *Resolver) Location() *time.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loc
}

// SetLocation switches the timezone and resolves the slot again.
func (r *Resolver) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	r.mu.Lock()
	r.loc = loc
	r.mu.Unlock()
	r.Resolve()
}

// Current returns the last resolved slot, resolving it first if needed.
func (r *Resolver) Current() int {
	r.mu.RLock()
	cur, ok := r.current, r.resolved
	r.mu.RUnlock()
	if ok {
		return cur
	}
	return r.Resolve()
}

// State reads the clock once and returns the slot it falls in and the time
// the next slot starts. Unlike Current it is never stale, so the pair always
// agrees.
func (r *Resolver) State() (int, time.Time) {
	now := r.now().In(r.Location())
	return SlotAt(now), NextBoundary(now)
}

// Resolve re-reads the clock and returns the current slot.
func (r *Resolver) Resolve() int {
	slot := SlotAt(r.now().In(r.Location()))

	r.mu.Lock()
	changed := !r.resolved || r.current != slot
	r.current = slot
	r.resolved = true
	r.mu.Unlock()

	if changed {
		logrus.WithFields(logrus.Fields{
			"slot":  slot,
			"label": schedule.SlotLabel(slot),
		}).Debug("current slot changed")
		for _, fn := range r.onChange {
			fn(slot)
		}
	}
	return slot
}

// Run resolves the slot every interval until ctx is done.
func (r *Resolver) Run(ctx context.Context) error {
	r.Resolve()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Resolve()
		}
	}
}

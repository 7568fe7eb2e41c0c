package slotclock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"midnight", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 0},
		{"just before half past", time.Date(2024, 5, 1, 0, 29, 59, 0, time.UTC), 0},
		{"half past", time.Date(2024, 5, 1, 0, 30, 0, 0, time.UTC), 1},
		{"afternoon", time.Date(2024, 5, 1, 13, 45, 0, 0, time.UTC), 27},
		{"last slot", time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), 47},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlotAt(tt.at))
		})
	}
}

func TestNextBoundary(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{
			"mid slot",
			time.Date(2024, 5, 1, 9, 10, 0, 0, time.UTC),
			time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			"exactly on boundary",
			time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
			time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			"midnight rollover",
			time.Date(2024, 5, 1, 23, 45, 0, 0, time.UTC),
			time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextBoundary(tt.at)), "got %v", NextBoundary(tt.at))
		})
	}
}

func TestNextBoundaryKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	got := NextBoundary(time.Date(2024, 5, 1, 23, 50, 0, 0, loc))
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 2, got.Day())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestResolverOnChange(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	var got []int
	r := New(WithClock(clock.Now), WithLocation(time.UTC), OnChange(func(slot int) {
		got = append(got, slot)
	}))

	assert.Equal(t, 16, r.Current())
	assert.Equal(t, 16, r.Resolve())

	clock.Set(time.Date(2024, 5, 1, 8, 31, 0, 0, time.UTC))
	assert.Equal(t, 16, r.Current(), "stale until resolved")
	assert.Equal(t, 17, r.Resolve())
	assert.Equal(t, []int{16, 17}, got)

	slot, next := r.State()
	assert.Equal(t, 17, slot)
	assert.True(t, next.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))
}

func TestResolverStateIsConsistent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 29, 0, 0, time.UTC)}
	r := New(WithClock(clock.Now), WithLocation(time.UTC))
	require.Equal(t, 20, r.Resolve())

	// just past a boundary, before the next poll
	clock.Set(time.Date(2024, 5, 1, 10, 31, 0, 0, time.UTC))
	assert.Equal(t, 20, r.Current())

	slot, next := r.State()
	assert.Equal(t, 21, slot)
	assert.True(t, next.Equal(time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)), "got %v", next)
}

func TestResolverLocation(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)}
	r := New(WithClock(clock.Now), WithLocation(time.FixedZone("UTC+2", 2*3600)))
	assert.Equal(t, 0, r.Current())
}

func TestResolverRun(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	changes := make(chan int, 4)
	r := New(
		WithClock(clock.Now),
		WithLocation(time.UTC),
		WithInterval(10*time.Millisecond),
		OnChange(func(slot int) { changes <- slot }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Equal(t, 16, <-changes)
	clock.Set(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	select {
	case slot := <-changes:
		assert.Equal(t, 18, slot)
	case <-time.After(time.Second):
		t.Fatal("slot change not observed")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestResolverSetLocation(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	r := New(WithClock(clock.Now), WithLocation(time.UTC))
	assert.Equal(t, 20, r.Current())

	r.SetLocation(time.FixedZone("UTC-1", -3600))
	assert.Equal(t, 18, r.Current())
}

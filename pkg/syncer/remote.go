// Package syncer keeps the local schedule store in step with the remote
// authority: it refreshes, loads, commits and deletes schedules, and never
// lets an uncommitted edit buffer leak into the authoritative copies.
package syncer

import (
	"context"
	"time"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

// Summary is one entry of the remote list call.
type Summary struct {
	ID              string  `json:"schedule_id"`
	Target          string  `json:"target_entity_id,omitempty"`
	Enabled         bool    `json:"enabled"`
	Timezone        *string `json:"timezone,omitempty"`
	ConditionsCount int     `json:"conditions_count"`
	ActiveSlots     int     `json:"active_slots_count"`
}

// EvaluationState is the remote store's view of the current tick, which may
// differ from the local clock.
type EvaluationState struct {
	CurrentSlot  int       `json:"current_slot"`
	NextSlotTime time.Time `json:"next_slot_time"`
}

// Remote is the authoritative schedule store. Get returns ErrNotFound for
// unknown identifiers.
type Remote interface {
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id string) (schedule.Schedule, error)
	SetSchedule(ctx context.Context, id string, body schedule.Body) error
	SetConditions(ctx context.Context, id string, conditions schedule.Conditions) error
	Remove(ctx context.Context, id string) error
	Enable(ctx context.Context, id string) error
	Disable(ctx context.Context, id string) error
	EvaluationState(ctx context.Context) (EvaluationState, error)
}

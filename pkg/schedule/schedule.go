// Package schedule models a recurring 24-hour activation plan made of 48
// half-hour slots, the conditions that may override it, and the gesture
// logic used to paint slots.
package schedule

import (
	"fmt"
	"strings"
)

// Schedule is the activation plan for one controlled target.
type Schedule struct {
	ID         string     `json:"schedule_id"`
	Target     string     `json:"target_entity_id"`
	Slots      Slots      `json:"slots"`
	Enabled    bool       `json:"enabled"`
	Timezone   *string    `json:"timezone"`
	Conditions Conditions `json:"conditions"`
}

// Body is the part of a schedule committed by a set-schedule call.
type Body struct {
	Target   string  `json:"target_entity_id"`
	Slots    Slots   `json:"slots"`
	Enabled  bool    `json:"enabled"`
	Timezone *string `json:"timezone,omitempty"`
}

// New returns a schedule with every slot off and enabled set.
func New(id string) Schedule {
	return Schedule{
		ID:      id,
		Enabled: true,
	}
}

// Clone returns a copy sharing no memory with s.
func (s Schedule) Clone() Schedule {
	out := s
	if s.Timezone != nil {
		tz := *s.Timezone
		out.Timezone = &tz
	}
	out.Conditions = s.Conditions.Clone()
	return out
}

// Body extracts the set-schedule payload.
func (s Schedule) Body() Body {
	b := Body{
		Target:  s.Target,
		Slots:   s.Slots,
		Enabled: s.Enabled,
	}
	if s.Timezone != nil {
		tz := *s.Timezone
		b.Timezone = &tz
	}
	return b
}

// WithBody returns a copy of s whose body fields are taken from b.
// Conditions are left as they are.
func (s Schedule) WithBody(b Body) Schedule {
	out := s.Clone()
	out.Target = b.Target
	out.Slots = b.Slots
	out.Enabled = b.Enabled
	out.Timezone = nil
	if b.Timezone != nil {
		tz := *b.Timezone
		out.Timezone = &tz
	}
	return out
}

// TimezoneName returns the configured timezone or "" to inherit the host's.
func (s Schedule) TimezoneName() string {
	if s.Timezone == nil {
		return ""
	}
	return *s.Timezone
}

// ValidateID checks a schedule identifier.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("schedule_id", "must not be empty")
	}
	return nil
}

// Validate checks everything required before the schedule may be sent to the
// remote store.
func (s Schedule) Validate() error {
	if err := ValidateID(s.ID); err != nil {
		return err
	}
	if err := s.Body().Validate(); err != nil {
		return err
	}
	return s.Conditions.Validate()
}

// Validate checks a set-schedule payload.
func (b Body) Validate() error {
	if strings.TrimSpace(b.Target) == "" {
		return invalid("target_entity_id", "target entity is required")
	}
	return nil
}

// IsActiveAt reports whether the schedule wants its target on during slot.
func (s Schedule) IsActiveAt(slot int) bool {
	if !s.Enabled {
		return false
	}
	return s.Slots.Active(slot)
}

// Preview returns the activation flags for the next hours*2 slots, starting
// at fromSlot and wrapping around midnight.
func (s Schedule) Preview(fromSlot, hours int) ([]bool, error) {
	if err := ValidateSlot(fromSlot); err != nil {
		return nil, err
	}
	if hours < 1 || hours > 168 {
		return nil, invalid("hours", "%d out of range [1,168]", hours)
	}

	out := make([]bool, hours*2)
	for i := range out {
		out[i] = s.IsActiveAt((fromSlot + i) % SlotsPerDay)
	}
	return out, nil
}

func (s Schedule) String() string {
	state := "enabled"
	if !s.Enabled {
		state = "disabled"
	}
	return fmt.Sprintf("%s -> %s (%s, %d/%d slots, %d conditions)",
		s.ID, s.Target, state, s.Slots.Count(), SlotsPerDay, len(s.Conditions))
}

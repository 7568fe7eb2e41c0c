package schedule

import (
	"encoding/json"
	"fmt"
)

const (
	// SlotsPerDay is the number of half-hour buckets in a day.
	SlotsPerDay = 48
	// MinutesPerSlot is the width of one slot.
	MinutesPerSlot = 30
)

// Slots holds one activation flag per half-hour slot. It is an array, so
// assigning or passing it copies the flags.
type Slots [SlotsPerDay]bool

// ValidateSlot returns a *ValidationError when slot is outside [0,48).
func ValidateSlot(slot int) error {
	if slot < 0 || slot >= SlotsPerDay {
		return invalid("slot", "index %d out of range [0,%d)", slot, SlotsPerDay)
	}
	return nil
}

// SlotFromHourMinute maps a wall-clock time of day to its slot index.
func SlotFromHourMinute(hour, minute int) (int, error) {
	if hour < 0 || hour > 23 {
		return 0, invalid("hour", "%d out of range [0,24)", hour)
	}
	if minute < 0 || minute > 59 {
		return 0, invalid("minute", "%d out of range [0,60)", minute)
	}
	slot := hour * 2
	if minute >= MinutesPerSlot {
		slot++
	}
	return slot, nil
}

// HourMinute returns the start time of a slot.
func HourMinute(slot int) (hour, minute int, err error) {
	if err := ValidateSlot(slot); err != nil {
		return 0, 0, err
	}
	return slot / 2, (slot % 2) * MinutesPerSlot, nil
}

// SlotLabel formats the start time of a slot as HH:MM.
func SlotLabel(slot int) string {
	h, m, err := HourMinute(slot)
	if err != nil {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Count returns the number of active slots.
func (s Slots) Count() int {
	n := 0
	for _, v := range s {
		if v {
			n++
		}
	}
	return n
}

// Active reports whether slot i is on. Out-of-range indices are off.
func (s Slots) Active(i int) bool {
	if ValidateSlot(i) != nil {
		return false
	}
	return s[i]
}

func (s Slots) MarshalJSON() ([]byte, error) {
	return json.Marshal([SlotsPerDay]bool(s))
}

func (s *Slots) UnmarshalJSON(b []byte) error {
	var raw []bool
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != SlotsPerDay {
		return invalid("slots", "expected exactly %d values, got %d", SlotsPerDay, len(raw))
	}
	copy(s[:], raw)
	return nil
}

// String renders the slots as a 48-character bar, '#' for on and '.' for off.
func (s Slots) String() string {
	b := make([]byte, SlotsPerDay)
	for i, v := range s {
		if v {
			b[i] = '#'
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}

package events

import "encoding/json"

// Event name constants
const (
	ScheduleUpdated = "schedule.updated"
	ScheduleRemoved = "schedule.removed"
	SlotChanged     = "slot.changed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// ScheduleUpdatedEvent is published after any write to a schedule. Part tells
// which call made it: "schedule", "conditions", "enable" or "disable".
type ScheduleUpdatedEvent struct {
	ScheduleID string `json:"schedule_id"`
	Part       string `json:"part"`
	Ts         int64  `json:"ts"`
}

// ScheduleRemovedEvent is the typed payload for schedule.removed.
type ScheduleRemovedEvent struct {
	ScheduleID string `json:"schedule_id"`
	Ts         int64  `json:"ts"`
}

// SlotChangedEvent is published at every half-hour boundary.
type SlotChangedEvent struct {
	Slot         int    `json:"current_slot"`
	Label        string `json:"label"`
	NextSlotTime int64  `json:"next_slot_time"`
	Ts           int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.SlotChangedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Slot, payload.Label)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}

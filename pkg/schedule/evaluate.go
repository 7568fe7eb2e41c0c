package schedule

import "fmt"

// Outcome is the decision taken for a tick once conditions are considered.
type Outcome int

const (
	// OutcomeApply applies the scheduled state.
	OutcomeApply Outcome = iota
	// OutcomeSkip suppresses the transition for this tick.
	OutcomeSkip
	// OutcomeForceOff turns the target off regardless of the slot.
	OutcomeForceOff
	// OutcomeDefer re-evaluates on the next tick.
	OutcomeDefer
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApply:
		return "apply"
	case OutcomeSkip:
		return "skip"
	case OutcomeForceOff:
		return "force_off"
	case OutcomeDefer:
		return "defer"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Evaluation explains an Outcome. Index is the deciding condition, or -1.
type Evaluation struct {
	Outcome Outcome
	Index   int
	Reason  string
}

// UnknownState is assumed for entities missing from the state map.
const UnknownState = "unknown"

// Evaluate walks the conditions in list order. The first condition that is
// not met decides the outcome; later conditions are not looked at.
func (s Schedule) Evaluate(states map[string]string) Evaluation {
	for i, c := range s.Conditions {
		state, ok := states[c.Entity]
		if !ok {
			state = UnknownState
		}
		if c.IsMet(state) {
			continue
		}

		ev := Evaluation{Index: i}
		switch c.Policy {
		case PolicyForceOff:
			ev.Outcome = OutcomeForceOff
		case PolicyDefer:
			ev.Outcome = OutcomeDefer
		default:
			ev.Outcome = OutcomeSkip
		}
		ev.Reason = fmt.Sprintf("%s: %s is %q, expected %q", ev.Outcome, c.Entity, state, c.ExpectedValue())
		return ev
	}

	if len(s.Conditions) == 0 {
		return Evaluation{Outcome: OutcomeApply, Index: -1, Reason: "no conditions"}
	}
	return Evaluation{Outcome: OutcomeApply, Index: -1, Reason: "all conditions met"}
}

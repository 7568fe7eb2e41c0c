package schedule

import (
	"encoding/json"
	"strings"
)

// Policy decides what happens to a scheduled transition when a condition is
// not met.
type Policy string

const (
	// PolicySkip suppresses the scheduled transition for that tick.
	PolicySkip Policy = "skip"
	// PolicyForceOff forces the target off instead of the scheduled state.
	PolicyForceOff Policy = "force_off"
	// PolicyDefer postpones evaluation to the next tick.
	PolicyDefer Policy = "defer"

	DefaultPolicy = PolicySkip
	// DefaultExpected is the expected value of a freshly added condition.
	DefaultExpected = "on"
)

// Policies lists every valid policy in display order.
var Policies = []Policy{PolicySkip, PolicyForceOff, PolicyDefer}

// ParsePolicy rejects anything outside the three known policies.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicySkip, PolicyForceOff, PolicyDefer:
		return p, nil
	}
	return "", invalid("policy", "%q is not one of skip, force_off, defer", s)
}

func (p Policy) String() string { return string(p) }

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Condition overrides the schedule based on another entity's live state.
type Condition struct {
	Entity   string  `json:"entity_id"`
	Expected *string `json:"expected"`
	Policy   Policy  `json:"policy"`
}

// UnmarshalJSON fills in DefaultPolicy when the policy key is absent. An
// explicit policy is still validated.
func (c *Condition) UnmarshalJSON(b []byte) error {
	type plain Condition
	v := plain{Policy: DefaultPolicy}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Condition(v)
	return nil
}

// ExpectedValue returns the expected value, or "" when any state matches.
func (c Condition) ExpectedValue() string {
	if c.Expected == nil {
		return ""
	}
	return *c.Expected
}

func (c Condition) clone() Condition {
	if c.Expected != nil {
		e := *c.Expected
		c.Expected = &e
	}
	return c
}

var (
	truthyExpected = []string{"true", "on", "1", "yes"}
	truthyStates   = []string{"on", "true", "1", "yes", "home"}
	falsyExpected  = []string{"false", "off", "0", "no"}
	falsyStates    = []string{"off", "false", "0", "no", "away", "not_home"}
)

// IsMet reports whether state satisfies the condition. Boolean-like expected
// values accept the usual aliases (e.g. "home" counts as on); anything else
// must match exactly. A condition without an expected value always matches.
func (c Condition) IsMet(state string) bool {
	if c.Expected == nil {
		return true
	}

	expected := strings.ToLower(*c.Expected)
	lowered := strings.ToLower(state)
	switch {
	case contains(truthyExpected, expected):
		return contains(truthyStates, lowered)
	case contains(falsyExpected, expected):
		return contains(falsyStates, lowered)
	default:
		return state == *c.Expected
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Field names a mutable attribute of a Condition.
type Field string

const (
	FieldEntity   Field = "entity_id"
	FieldExpected Field = "expected"
	FieldPolicy   Field = "policy"
)

// Conditions is an ordered list of conditions. Operations never mutate the
// receiver; they return a new slice so that callers holding the old one are
// unaffected.
type Conditions []Condition

// Clone returns a deep copy.
func (cs Conditions) Clone() Conditions {
	if cs == nil {
		return nil
	}
	out := make(Conditions, len(cs))
	for i, c := range cs {
		out[i] = c.clone()
	}
	return out
}

// Add appends a default condition (empty entity, expected "on", skip).
func (cs Conditions) Add() Conditions {
	expected := DefaultExpected
	out := make(Conditions, 0, len(cs)+1)
	out = append(out, cs.Clone()...)
	return append(out, Condition{Expected: &expected, Policy: DefaultPolicy})
}

// Remove deletes the condition at index i, keeping the others in order.
func (cs Conditions) Remove(i int) (Conditions, error) {
	if i < 0 || i >= len(cs) {
		return nil, invalid("condition", "index %d out of range [0,%d)", i, len(cs))
	}
	out := make(Conditions, 0, len(cs)-1)
	for j, c := range cs {
		if j != i {
			out = append(out, c.clone())
		}
	}
	return out, nil
}

// Update sets one field of the condition at index i. An empty expected value
// clears it.
func (cs Conditions) Update(i int, field Field, value string) (Conditions, error) {
	if i < 0 || i >= len(cs) {
		return nil, invalid("condition", "index %d out of range [0,%d)", i, len(cs))
	}

	out := cs.Clone()
	switch field {
	case FieldEntity:
		out[i].Entity = value
	case FieldExpected:
		if value == "" {
			out[i].Expected = nil
		} else {
			out[i].Expected = &value
		}
	case FieldPolicy:
		p, err := ParsePolicy(value)
		if err != nil {
			return nil, err
		}
		out[i].Policy = p
	default:
		return nil, invalid("field", "%q is not one of entity_id, expected, policy", field)
	}
	return out, nil
}

// Validate checks every policy. Entities may still be empty while editing.
func (cs Conditions) Validate() error {
	for i, c := range cs {
		if _, err := ParsePolicy(string(c.Policy)); err != nil {
			return invalid("condition", "#%d: %v", i, err)
		}
	}
	return nil
}

// Entities returns the distinct entities referenced, in first-seen order.
func (cs Conditions) Entities() []string {
	seen := make(map[string]bool, len(cs))
	var out []string
	for _, c := range cs {
		if c.Entity == "" || seen[c.Entity] {
			continue
		}
		seen[c.Entity] = true
		out = append(out, c.Entity)
	}
	return out
}

package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedule(t *testing.T) {
	s := New("morning")
	assert.Equal(t, "morning", s.ID)
	assert.True(t, s.Enabled)
	assert.Zero(t, s.Slots.Count())
	assert.Nil(t, s.Timezone)
	assert.Empty(t, s.Conditions)
}

func TestCloneDoesNotAlias(t *testing.T) {
	s := New("a")
	s.Target = "switch.heater"
	s.Timezone = strptr("Europe/Paris")
	s.Conditions = Conditions{}.Add()

	c := s.Clone()
	c.Slots[3] = true
	*c.Timezone = "UTC"
	*c.Conditions[0].Expected = "off"
	c.Conditions[0].Entity = "x"

	assert.False(t, s.Slots[3])
	assert.Equal(t, "Europe/Paris", *s.Timezone)
	assert.Equal(t, "on", *s.Conditions[0].Expected)
	assert.Equal(t, "", s.Conditions[0].Entity)
}

func TestValidate(t *testing.T) {
	s := New("a")
	err := s.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "target_entity_id", verr.Field)

	s.Target = "light.porch"
	require.NoError(t, s.Validate())

	s.Conditions = Conditions{{Entity: "x", Policy: Policy("bogus")}}
	require.ErrorIs(t, s.Validate(), ErrValidation)

	require.ErrorIs(t, New("  ").Validate(), ErrValidation)
}

func TestWithBodyKeepsConditions(t *testing.T) {
	s := New("a")
	s.Conditions = Conditions{}.Add()

	var slots Slots
	slots[7] = true
	out := s.WithBody(Body{Target: "switch.pump", Slots: slots, Enabled: false})

	assert.Equal(t, "switch.pump", out.Target)
	assert.True(t, out.Slots[7])
	assert.False(t, out.Enabled)
	assert.Len(t, out.Conditions, 1)
}

func TestPreview(t *testing.T) {
	s := New("a")
	s.Slots[47] = true
	s.Slots[0] = true

	p, err := s.Preview(46, 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, p)

	s.Enabled = false
	p, err = s.Preview(46, 1)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, p)

	_, err = s.Preview(0, 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestEvaluateFirstFailingConditionWins(t *testing.T) {
	s := New("a")
	s.Conditions = Conditions{
		{Entity: "person.me", Expected: strptr("home"), Policy: PolicyDefer},
		{Entity: "binary_sensor.window", Expected: strptr("off"), Policy: PolicyForceOff},
		{Entity: "input_boolean.vacation", Expected: strptr("off"), Policy: PolicySkip},
	}

	tests := []struct {
		name   string
		states map[string]string
		want   Outcome
		index  int
	}{
		{
			name:   "all met",
			states: map[string]string{"person.me": "home", "binary_sensor.window": "off", "input_boolean.vacation": "off"},
			want:   OutcomeApply,
			index:  -1,
		},
		{
			name:   "defer listed first wins over force_off",
			states: map[string]string{"person.me": "work", "binary_sensor.window": "on", "input_boolean.vacation": "off"},
			want:   OutcomeDefer,
			index:  0,
		},
		{
			name:   "force_off",
			states: map[string]string{"person.me": "home", "binary_sensor.window": "on", "input_boolean.vacation": "on"},
			want:   OutcomeForceOff,
			index:  1,
		},
		{
			name:   "missing state is unknown",
			states: map[string]string{"person.me": "home", "binary_sensor.window": "off"},
			want:   OutcomeSkip,
			index:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := s.Evaluate(tt.states)
			assert.Equal(t, tt.want, ev.Outcome)
			assert.Equal(t, tt.index, ev.Index)
			assert.NotEmpty(t, ev.Reason)
		})
	}
}

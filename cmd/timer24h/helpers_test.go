package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

func TestParseSlotArg(t *testing.T) {
	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"47", 47, false},
		{"48", 0, true},
		{"07:30", 15, false},
		{"7:45", 15, false},
		{"23:59", 47, false},
		{"24:00", 0, true},
		{"noon", 0, true},
		{"ab:00", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseSlotArg(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOnOff(t *testing.T) {
	on, err := parseOnOff("ON")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := parseOnOff("no")
	require.NoError(t, err)
	assert.False(t, off)

	_, err = parseOnOff("maybe")
	assert.Error(t, err)
}

func TestActiveRanges(t *testing.T) {
	var slots schedule.Slots
	for i := 10; i <= 15; i++ {
		slots[i] = true
	}
	slots[47] = true
	assert.Equal(t, []string{"05:00-08:00", "23:30-24:00"}, activeRanges(slots))
	assert.Empty(t, activeRanges(schedule.Slots{}))
}

func TestSlotBar(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	assert.Equal(t, "█··", slotBar([]bool{true, false, false}, -1))
}

func TestScheduleRowPadsBeforeColouring(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	s := schedule.New("night")
	s.Target = "switch.heater"
	s.Enabled = false

	row := scheduleRow(s, -1)
	assert.True(t, strings.HasPrefix(row, "\x1b[2mnight           \x1b[0m "), "%q", row)
	assert.True(t, strings.HasSuffix(row, "  switch.heater"))

	s.Enabled = true
	assert.True(t, strings.HasPrefix(scheduleRow(s, -1), "night            "))
}

func TestOutcomeText(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	s := schedule.New("night")
	s.Conditions = s.Conditions.Add()
	cs, err := s.Conditions.Update(0, schedule.FieldEntity, "sun.sun")
	require.NoError(t, err)
	s.Conditions = cs

	assert.Equal(t, "apply", outcomeText(s.Evaluate(map[string]string{"sun.sun": "on"}).Outcome))
	assert.Equal(t, "skip", outcomeText(s.Evaluate(nil).Outcome))
}

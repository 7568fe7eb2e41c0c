package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/charlie0129/timer24h/pkg/schedule"
)

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

// slotBar draws one cell per slot. current, when valid, is highlighted.
func slotBar(active []bool, current int) string {
	on := color.New(color.FgGreen)
	off := color.New(color.Faint)
	cur := color.New(color.Bold, color.FgYellow)

	var sb strings.Builder
	for i, a := range active {
		cell, c := "·", off
		if a {
			cell, c = "█", on
		}
		if i == current {
			c = cur
		}
		sb.WriteString(c.Sprint(cell))
	}
	return sb.String()
}

// scheduleRow is one line of the list output. The id is padded before it is
// coloured so escape codes do not count towards the column width.
func scheduleRow(s schedule.Schedule, current int) string {
	name := fmt.Sprintf("%-16s", s.ID)
	if !s.Enabled {
		name = color.New(color.Faint).Sprint(name)
	}
	return fmt.Sprintf("%s %s  %s", name, slotBar(s.Slots[:], current), s.Target)
}

// hourRuler labels every third hour above a 48-cell bar.
func hourRuler() string {
	var sb strings.Builder
	for h := 0; h < 24; h += 3 {
		sb.WriteString(fmt.Sprintf("%-6s", fmt.Sprintf("%02d", h)))
	}
	return sb.String()
}

// activeRanges lists the active slots as "HH:MM-HH:MM" ranges.
func activeRanges(slots schedule.Slots) []string {
	var out []string
	for i := 0; i < schedule.SlotsPerDay; i++ {
		if !slots[i] {
			continue
		}
		j := i
		for j+1 < schedule.SlotsPerDay && slots[j+1] {
			j++
		}
		end := "24:00"
		if j+1 < schedule.SlotsPerDay {
			end = schedule.SlotLabel(j + 1)
		}
		out = append(out, schedule.SlotLabel(i)+"-"+end)
		i = j
	}
	return out
}

func policyText(p schedule.Policy) string {
	switch p {
	case schedule.PolicySkip:
		return color.YellowString(string(p))
	case schedule.PolicyForceOff:
		return color.RedString(string(p))
	case schedule.PolicyDefer:
		return color.CyanString(string(p))
	}
	return string(p)
}

func expectedText(c schedule.Condition) string {
	if c.Expected == nil {
		return "(any)"
	}
	return *c.Expected
}

func outcomeText(o schedule.Outcome) string {
	switch o {
	case schedule.OutcomeApply:
		return color.GreenString(o.String())
	case schedule.OutcomeForceOff:
		return color.RedString(o.String())
	}
	return color.YellowString(o.String())
}

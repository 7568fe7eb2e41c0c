package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/timer24h/pkg/events"
	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.String())
		},
	}
}

func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all schedules",
		GroupID: gBasic,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			co := newCoordinator()
			defer co.Close()
			if err := co.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("failed to list schedules: %w", err)
			}

			current := -1
			if st, err := co.EvaluationState(cmd.Context()); err == nil {
				current = st.CurrentSlot
			} else {
				logrus.WithError(err).Debug("failed to get evaluation state")
			}

			scheds := co.Store().All()
			if len(scheds) == 0 {
				cmd.Println("No schedules. Create one with 'timer24h create <id> --target <entity>'.")
				return nil
			}

			cmd.Printf("%-16s %s\n", "", hourRuler())
			for _, s := range scheds {
				cmd.Println(scheduleRow(s, current))
			}
			return nil
		},
	}
}

func NewShowCommand() *cobra.Command {
	var states map[string]string
	cmd := &cobra.Command{
		Use:     "show <id>",
		Short:   "Show one schedule with its conditions",
		GroupID: gBasic,
		Long: `Show one schedule with its conditions.

With --state, the conditions are checked against the given entity states and
the decision for the current slot is printed. Entities not given are assumed
to be in an unknown state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := apiClient.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSchedule(cmd, s)

			if cmd.Flags().Changed("state") {
				ev := s.Evaluate(states)
				cmd.Println()
				cmd.Printf("%s %s (%s)\n", bold("Decision:"), outcomeText(ev.Outcome), ev.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&states, "state", nil, "entity state to check conditions against, e.g. --state sun.sun=below_horizon")
	return cmd
}

func printSchedule(cmd *cobra.Command, s schedule.Schedule) {
	current := -1
	if st, err := apiClient.EvaluationState(cmd.Context()); err == nil {
		current = st.CurrentSlot
	}

	cmd.Println(bold("Schedule %s:", s.ID))
	cmd.Printf("  Target: %s\n", bold("%s", s.Target))
	cmd.Printf("  Enabled: %s\n", bool2Text(s.Enabled))
	tz := s.TimezoneName()
	if tz == "" {
		tz = "(daemon default)"
	}
	cmd.Printf("  Timezone: %s\n", tz)
	cmd.Printf("  Active slots: %s\n", bold("%d/%d", s.Slots.Count(), schedule.SlotsPerDay))
	for _, r := range activeRanges(s.Slots) {
		cmd.Printf("    %s\n", r)
	}
	cmd.Println()
	cmd.Printf("  %s\n", hourRuler())
	cmd.Printf("  %s\n", slotBar(s.Slots[:], current))
	cmd.Println()

	if len(s.Conditions) == 0 {
		cmd.Println(bold("Conditions:") + " none")
		return
	}
	cmd.Println(bold("Conditions:"))
	for i, c := range s.Conditions {
		cmd.Printf("  #%d %s == %s -> %s\n", i, c.Entity, expectedText(c), policyText(c.Policy))
	}
}

func NewNowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "now",
		Short:   "Show the current slot and which schedules are active",
		GroupID: gBasic,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			co := newCoordinator()
			defer co.Close()

			st, err := co.EvaluationState(cmd.Context())
			if err != nil {
				return err
			}
			if err := co.Refresh(cmd.Context()); err != nil {
				return err
			}

			cmd.Printf("Current slot: %s (%d)\n", bold("%s", schedule.SlotLabel(st.CurrentSlot)), st.CurrentSlot)
			cmd.Printf("Next slot at: %s\n", st.NextSlotTime.Local().Format(time.Kitchen))
			cmd.Println()
			for _, s := range co.Store().All() {
				cmd.Printf("  %-16s %s  %s\n", s.ID, bool2Text(s.IsActiveAt(st.CurrentSlot)), s.Target)
			}
			return nil
		},
	}
}

func NewPreviewCommand() *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:     "preview <id>",
		Short:   "Preview the next hours of a schedule starting from now",
		GroupID: gBasic,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := apiClient.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			st, err := apiClient.EvaluationState(cmd.Context())
			if err != nil {
				return err
			}

			flags, err := s.Preview(st.CurrentSlot, hours)
			if err != nil {
				return err
			}
			for i, on := range flags {
				slot := (st.CurrentSlot + i) % schedule.SlotsPerDay
				cmd.Printf("%s %s\n", schedule.SlotLabel(slot), bool2Text(on))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "number of hours to preview (1-168)")
	return cmd
}

func NewWatchCommand() *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Follow schedule changes and slot boundaries",
		GroupID: gBasic,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch, err := apiClient.SubscribeEvents(cmd.Context(), only...)
			if err != nil {
				return err
			}

			for ev := range ch {
				ts := time.Now().Format(time.TimeOnly)
				switch ev.Name {
				case events.SlotChanged:
					p, err := events.DecodeAs[events.SlotChangedEvent](ev)
					if err != nil {
						logrus.WithError(err).Warn("failed to decode event")
						continue
					}
					cmd.Printf("%s slot %s started\n", ts, bold("%s", p.Label))
				case events.ScheduleUpdated:
					p, err := events.DecodeAs[events.ScheduleUpdatedEvent](ev)
					if err != nil {
						logrus.WithError(err).Warn("failed to decode event")
						continue
					}
					cmd.Printf("%s %s updated (%s)\n", ts, bold("%s", p.ScheduleID), p.Part)
				case events.ScheduleRemoved:
					p, err := events.DecodeAs[events.ScheduleRemovedEvent](ev)
					if err != nil {
						logrus.WithError(err).Warn("failed to decode event")
						continue
					}
					cmd.Printf("%s %s removed\n", ts, bold("%s", p.ScheduleID))
				default:
					logrus.WithField("event", ev.Name).Debug("ignoring unknown event")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&only, "event", nil, "only show these events (slot.changed, schedule.updated, schedule.removed)")
	return cmd
}

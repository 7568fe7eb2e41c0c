package main

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/store"
)

func NewCreateCommand() *cobra.Command {
	var (
		target   string
		timezone string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:     "create <id>",
		Short:   "Create a new schedule",
		GroupID: gEditing,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co := newCoordinator()
			defer co.Close()

			// duplicates are detected against the current list
			if err := co.Refresh(cmd.Context()); err != nil {
				return err
			}

			sess, err := co.Create(args[0])
			if err != nil {
				return err
			}
			if err := sess.SetTarget(target); err != nil {
				return err
			}
			if err := sess.SetTimezone(timezone); err != nil {
				return err
			}
			if err := sess.SetEnabled(!disabled); err != nil {
				return err
			}
			if err := co.Save(cmd.Context()); err != nil {
				return err
			}

			logrus.Infof("created schedule %s for %s", sess.ScheduleID(), target)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&target, "target", "", "entity switched by this schedule")
	f.StringVar(&timezone, "timezone", "", "IANA timezone, defaults to the daemon's")
	f.BoolVar(&disabled, "disabled", false, "create the schedule disabled")

	return cmd
}

func NewPaintCommand() *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:     "paint <id> <from> [to]",
		Short:   "Paint a range of slots",
		GroupID: gEditing,
		Long: `Paint a range of slots, like dragging across the day.

Slots are given as an index (0-47) or a time of day (HH:MM). Without --value,
every slot in the range takes the opposite of the state of <from>, so painting
a single slot toggles it. A <to> of "end" (or 24:00) drags off the end of the
day: everything up to 23:30 is painted and the gesture stops there.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseSlotArg(args[1])
			if err != nil {
				return err
			}
			to, offEnd := from, false
			if len(args) == 3 {
				if args[2] == "end" || args[2] == "24:00" {
					to, offEnd = schedule.SlotsPerDay-1, true
				} else if to, err = parseSlotArg(args[2]); err != nil {
					return err
				}
			}

			s, err := editSchedule(cmd.Context(), args[0], func(sess *store.Session) error {
				if value != "" {
					on, err := parseOnOff(value)
					if err != nil {
						return err
					}
					return sess.SetRange(from, to, on)
				}

				if err := sess.BeginPaint(from); err != nil {
					return err
				}
				if err := sess.ExtendPaint(to); err != nil {
					sess.EndPaint()
					return err
				}
				if offEnd {
					sess.LeavePaint()
				} else {
					sess.EndPaint()
				}
				return nil
			})
			if err != nil {
				return err
			}

			printSchedule(cmd, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "set the range to on or off instead of toggling")
	return cmd
}

func NewSetCommand() *cobra.Command {
	var (
		target   string
		timezone string
		enabled  bool
	)

	cmd := &cobra.Command{
		Use:     "set <id>",
		Short:   "Change the target, timezone or enabled flag of a schedule",
		GroupID: gEditing,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			if !f.Changed("target") && !f.Changed("timezone") && !f.Changed("enabled") {
				return fmt.Errorf("nothing to set, use --target, --timezone or --enabled")
			}

			s, err := editSchedule(cmd.Context(), args[0], func(sess *store.Session) error {
				if f.Changed("target") {
					if err := sess.SetTarget(target); err != nil {
						return err
					}
				}
				if f.Changed("timezone") {
					if err := sess.SetTimezone(timezone); err != nil {
						return err
					}
				}
				if f.Changed("enabled") {
					return sess.SetEnabled(enabled)
				}
				return nil
			})
			if err != nil {
				return err
			}

			printSchedule(cmd, s)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&target, "target", "", "entity switched by this schedule")
	f.StringVar(&timezone, "timezone", "", "IANA timezone, empty for the daemon's")
	f.BoolVar(&enabled, "enabled", true, "whether the schedule is active")

	return cmd
}

func NewConditionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "condition",
		Short:   "Edit the conditions of a schedule",
		GroupID: gEditing,
	}

	var (
		entity   string
		expected string
		policy   string
	)
	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Append a condition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := editSchedule(cmd.Context(), args[0], func(sess *store.Session) error {
				i, err := sess.AddCondition()
				if err != nil {
					return err
				}
				if err := sess.UpdateCondition(i, schedule.FieldEntity, entity); err != nil {
					return err
				}
				if err := sess.UpdateCondition(i, schedule.FieldExpected, expected); err != nil {
					return err
				}
				return sess.UpdateCondition(i, schedule.FieldPolicy, policy)
			})
			if err != nil {
				return err
			}
			printSchedule(cmd, s)
			return nil
		},
	}
	af := add.Flags()
	af.StringVar(&entity, "entity", "", "entity whose state is checked")
	af.StringVar(&expected, "expected", schedule.DefaultExpected, "expected state, empty matches any state")
	af.StringVar(&policy, "policy", string(schedule.DefaultPolicy), "policy when the state does not match (skip, force_off, defer)")

	rm := &cobra.Command{
		Use:   "rm <id> <index>",
		Short: "Remove the condition at index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index: %v", err)
			}
			s, err := editSchedule(cmd.Context(), args[0], func(sess *store.Session) error {
				return sess.RemoveCondition(i)
			})
			if err != nil {
				return err
			}
			printSchedule(cmd, s)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <id> <index> <field> <value>",
		Short: "Change one field (entity_id, expected, policy) of a condition",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index: %v", err)
			}
			s, err := editSchedule(cmd.Context(), args[0], func(sess *store.Session) error {
				return sess.UpdateCondition(i, schedule.Field(args[2]), args[3])
			})
			if err != nil {
				return err
			}
			printSchedule(cmd, s)
			return nil
		},
	}

	cmd.AddCommand(add, rm, set)
	return cmd
}

func newEnabledCommand(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <id>",
		Short:   short,
		GroupID: gEditing,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co := newCoordinator()
			defer co.Close()

			id := args[0]
			if err := co.Load(cmd.Context(), id); err != nil {
				return err
			}
			if err := co.SetEnabled(cmd.Context(), id, enabled); err != nil {
				return fmt.Errorf("failed to %s %s: %w", use, id, err)
			}
			logrus.Infof("successfully %sd schedule %s", use, id)
			return nil
		},
	}
}

func NewEnableCommand() *cobra.Command {
	return newEnabledCommand("enable", "Enable a schedule", true)
}

func NewDisableCommand() *cobra.Command {
	return newEnabledCommand("disable", "Disable a schedule without changing its slots", false)
}

func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a schedule",
		GroupID: gEditing,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co := newCoordinator()
			defer co.Close()

			id := args[0]
			if err := co.Load(cmd.Context(), id); err != nil {
				return err
			}
			if err := co.Delete(cmd.Context(), id); err != nil {
				return err
			}
			logrus.Infof("removed schedule %s", id)
			return nil
		},
	}
}

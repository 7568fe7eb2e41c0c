package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/store"
	"github.com/charlie0129/timer24h/pkg/syncer"
)

var refreshConcurrency = 8

// parseSlotArg accepts a slot index (0-47) or a time of day (HH:MM).
func parseSlotArg(arg string) (int, error) {
	if h, m, ok := strings.Cut(arg, ":"); ok {
		hour, err := strconv.Atoi(h)
		if err != nil {
			return 0, fmt.Errorf("invalid hour in %q", arg)
		}
		minute, err := strconv.Atoi(m)
		if err != nil {
			return 0, fmt.Errorf("invalid minute in %q", arg)
		}
		return schedule.SlotFromHourMinute(hour, minute)
	}

	slot, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q: use an index (0-47) or HH:MM", arg)
	}
	return slot, schedule.ValidateSlot(slot)
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q: use on or off", arg)
}

func newCoordinator() *syncer.Coordinator {
	return syncer.New(apiClient,
		syncer.WithConcurrency(refreshConcurrency),
		syncer.WithLogger(logrus.StandardLogger()),
	)
}

// editSchedule loads id, applies edit to an edit session and saves it.
func editSchedule(ctx context.Context, id string, edit func(*store.Session) error) (schedule.Schedule, error) {
	co := newCoordinator()
	defer co.Close()

	sess, err := co.Open(ctx, id)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if err := edit(sess); err != nil {
		return schedule.Schedule{}, err
	}
	if !sess.Dirty() {
		logrus.Info("nothing changed")
		s, _ := co.Store().Get(id)
		return s, nil
	}
	if err := co.Save(ctx); err != nil {
		return schedule.Schedule{}, err
	}

	s, _ := co.Store().Get(id)
	return s, nil
}

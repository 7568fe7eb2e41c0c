package daemon

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/events"
	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/storage"
	"github.com/charlie0129/timer24h/pkg/syncer"
	"github.com/charlie0129/timer24h/pkg/version"
)

func abort(c *gin.Context, status int, err error) {
	c.IndentedJSON(status, err.Error())
	_ = c.AbortWithError(status, err)
}

// abortStorage maps a backend error onto a status code.
func abortStorage(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	}
	abort(c, http.StatusInternalServerError, err)
}

func scheduleID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := schedule.ValidateID(id); err != nil {
		abort(c, http.StatusBadRequest, err)
		return "", false
	}
	return id, true
}

func (s *Server) listSchedules(c *gin.Context) {
	scheds, err := s.backend.List(c.Request.Context())
	if err != nil {
		abortStorage(c, err)
		return
	}

	out := make([]syncer.Summary, 0, len(scheds))
	for _, sched := range scheds {
		out = append(out, syncer.Summary{
			ID:              sched.ID,
			Target:          sched.Target,
			Enabled:         sched.Enabled,
			Timezone:        sched.Timezone,
			ConditionsCount: len(sched.Conditions),
			ActiveSlots:     sched.Slots.Count(),
		})
	}
	c.IndentedJSON(http.StatusOK, out)
}

func (s *Server) getSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}
	sched, err := s.backend.Get(c.Request.Context(), id)
	if err != nil {
		abortStorage(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, sched)
}

// setSchedule creates or replaces the body of a schedule. Existing conditions
// are kept.
func (s *Server) setSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}

	var body schedule.Body
	if err := c.BindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := body.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := c.Request.Context()
	sched, err := s.backend.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		sched, err = schedule.New(id), nil
	}
	if err != nil {
		abortStorage(c, err)
		return
	}

	sched = sched.WithBody(body)
	if err := s.backend.Put(ctx, sched); err != nil {
		s.log.WithError(err).WithField("schedule", id).Error("failed to store schedule")
		abortStorage(c, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"schedule": id,
		"target":   sched.Target,
		"slots":    sched.Slots.Count(),
		"enabled":  sched.Enabled,
	}).Info("schedule set")
	s.publishUpdated(id, "schedule")
	c.IndentedJSON(http.StatusOK, sched)
}

func (s *Server) setConditions(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}

	var conds schedule.Conditions
	if err := c.BindJSON(&conds); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := conds.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := c.Request.Context()
	sched, err := s.backend.Get(ctx, id)
	if err != nil {
		abortStorage(c, err)
		return
	}
	sched.Conditions = conds
	if err := s.backend.Put(ctx, sched); err != nil {
		abortStorage(c, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"schedule":   id,
		"conditions": len(conds),
	}).Info("conditions set")
	s.publishUpdated(id, "conditions")
	c.IndentedJSON(http.StatusOK, sched)
}

func (s *Server) removeSchedule(c *gin.Context) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(c.Request.Context(), id); err != nil {
		abortStorage(c, err)
		return
	}

	s.log.WithField("schedule", id).Info("schedule removed")
	s.hub.Publish(events.ScheduleRemoved, events.ScheduleRemovedEvent{
		ScheduleID: id,
		Ts:         time.Now().Unix(),
	})
	c.IndentedJSON(http.StatusOK, "ok")
}

func (s *Server) enableSchedule(c *gin.Context) {
	s.setEnabled(c, true)
}

func (s *Server) disableSchedule(c *gin.Context) {
	s.setEnabled(c, false)
}

func (s *Server) setEnabled(c *gin.Context, enabled bool) {
	id, ok := scheduleID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := c.Request.Context()
	sched, err := s.backend.Get(ctx, id)
	if err != nil {
		abortStorage(c, err)
		return
	}
	sched.Enabled = enabled
	if err := s.backend.Put(ctx, sched); err != nil {
		abortStorage(c, err)
		return
	}

	part := "enable"
	if !enabled {
		part = "disable"
	}
	s.log.WithField("schedule", id).Infof("schedule %sd", part)
	s.publishUpdated(id, part)
	c.IndentedJSON(http.StatusOK, sched)
}

func (s *Server) getState(c *gin.Context) {
	slot, next := s.clock.State()
	c.IndentedJSON(http.StatusOK, syncer.EvaluationState{
		CurrentSlot:  slot,
		NextSlotTime: next,
	})
}

// streamEvents relays hub events as server-sent events until the client goes
// away.
func (s *Server) streamEvents(c *gin.Context) {
	// ?event=slot.changed&event=schedule.updated narrows the stream
	sub := s.hub.Subscribe(c.QueryArray("event")...)
	defer s.hub.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Content-Type", "text/event-stream")
	// send headers now so the client is not left waiting for the first event
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func (s *Server) publishUpdated(id, part string) {
	s.hub.Publish(events.ScheduleUpdated, events.ScheduleUpdatedEvent{
		ScheduleID: id,
		Part:       part,
		Ts:         time.Now().Unix(),
	})
}

// publishSlot announces the slot that just started.
func (s *Server) publishSlot(slot int) {
	_, next := s.clock.State()
	s.hub.Publish(events.SlotChanged, events.SlotChangedEvent{
		Slot:         slot,
		Label:        schedule.SlotLabel(slot),
		NextSlotTime: next.Unix(),
		Ts:           time.Now().Unix(),
	})
}

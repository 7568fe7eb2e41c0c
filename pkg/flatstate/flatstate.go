// Package flatstate adapts the single-entity deployment, where one entity's
// attributes carry the whole schedule, to syncer.Remote.
//
// It is an optional backend. Nothing in this module constructs one: the daemon
// and CLI talk to the HTTP API through pkg/client. A host integration that
// exposes an entity supplies its own StateSource and hands the Adapter to
// syncer.New in place of the client.
package flatstate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/slotclock"
	"github.com/charlie0129/timer24h/pkg/syncer"
)

// ErrConditionsUnsupported is returned when conditions are sent to a
// deployment that has no condition model.
var ErrConditionsUnsupported = errors.New("conditions are not supported by this deployment")

// Service names called on the StateSource.
const (
	ServiceSetSchedule = "set_schedule"
	ServiceRemove      = "remove"
	ServiceEnable      = "enable"
	ServiceDisable     = "disable"
)

// StateSource reads the entity and calls its services.
type StateSource interface {
	Attributes(ctx context.Context) (map[string]any, error)
	CallService(ctx context.Context, service string, data map[string]any) error
}

type attributes struct {
	ID          string         `json:"schedule_id"`
	Target      string         `json:"target_entity_id"`
	Slots       schedule.Slots `json:"slots"`
	Enabled     bool           `json:"enabled"`
	Timezone    *string        `json:"timezone"`
	CurrentSlot *int           `json:"current_slot"`
}

// Adapter serves exactly one schedule: whichever the entity currently holds.
type Adapter struct {
	src StateSource
	now func() time.Time
}

var _ syncer.Remote = &Adapter{}

func New(src StateSource) *Adapter {
	return &Adapter{src: src, now: time.Now}
}

func (a *Adapter) read(ctx context.Context) (attributes, error) {
	raw, err := a.src.Attributes(ctx)
	if err != nil {
		return attributes{}, pkgerrors.Wrap(err, "failed to read entity attributes")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return attributes{}, pkgerrors.Wrap(err, "failed to encode entity attributes")
	}
	var attrs attributes
	if err := json.Unmarshal(b, &attrs); err != nil {
		return attributes{}, pkgerrors.Wrap(err, "failed to decode entity attributes")
	}
	return attrs, nil
}

func (a *Adapter) List(ctx context.Context) ([]syncer.Summary, error) {
	attrs, err := a.read(ctx)
	if err != nil {
		return nil, err
	}
	if attrs.ID == "" {
		return nil, nil
	}
	return []syncer.Summary{{
		ID:          attrs.ID,
		Target:      attrs.Target,
		Enabled:     attrs.Enabled,
		Timezone:    attrs.Timezone,
		ActiveSlots: attrs.Slots.Count(),
	}}, nil
}

func (a *Adapter) Get(ctx context.Context, id string) (schedule.Schedule, error) {
	attrs, err := a.read(ctx)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if attrs.ID == "" || attrs.ID != id {
		return schedule.Schedule{}, syncer.ErrNotFound
	}
	return schedule.Schedule{
		ID:       attrs.ID,
		Target:   attrs.Target,
		Slots:    attrs.Slots,
		Enabled:  attrs.Enabled,
		Timezone: attrs.Timezone,
	}, nil
}

func (a *Adapter) SetSchedule(ctx context.Context, id string, body schedule.Body) error {
	data := map[string]any{
		"schedule_id":      id,
		"target_entity_id": body.Target,
		"slots":            body.Slots,
		"enabled":          body.Enabled,
	}
	if body.Timezone != nil {
		data["timezone"] = *body.Timezone
	}
	return a.call(ctx, ServiceSetSchedule, data)
}

// SetConditions accepts only an empty list.
func (a *Adapter) SetConditions(_ context.Context, id string, conditions schedule.Conditions) error {
	if len(conditions) > 0 {
		logrus.WithField("schedule", id).Warn("conditions dropped, the entity has no condition model")
		return ErrConditionsUnsupported
	}
	return nil
}

func (a *Adapter) Remove(ctx context.Context, id string) error {
	return a.call(ctx, ServiceRemove, map[string]any{"schedule_id": id})
}

func (a *Adapter) Enable(ctx context.Context, id string) error {
	return a.call(ctx, ServiceEnable, map[string]any{"schedule_id": id})
}

func (a *Adapter) Disable(ctx context.Context, id string) error {
	return a.call(ctx, ServiceDisable, map[string]any{"schedule_id": id})
}

// EvaluationState reads current_slot from the entity. The entity does not
// publish the next boundary, so it is computed locally.
func (a *Adapter) EvaluationState(ctx context.Context) (syncer.EvaluationState, error) {
	attrs, err := a.read(ctx)
	if err != nil {
		return syncer.EvaluationState{}, err
	}

	now := a.now()
	if attrs.Timezone != nil && *attrs.Timezone != "" {
		if loc, err := time.LoadLocation(*attrs.Timezone); err == nil {
			now = now.In(loc)
		}
	}

	slot := slotclock.SlotAt(now)
	if attrs.CurrentSlot != nil {
		slot = *attrs.CurrentSlot
	}
	return syncer.EvaluationState{
		CurrentSlot:  slot,
		NextSlotTime: slotclock.NextBoundary(now),
	}, nil
}

func (a *Adapter) call(ctx context.Context, service string, data map[string]any) error {
	logrus.WithFields(logrus.Fields{
		"service":  service,
		"schedule": data["schedule_id"],
	}).Debug("calling service")
	if err := a.src.CallService(ctx, service, data); err != nil {
		return pkgerrors.Wrapf(err, "failed to call %s", service)
	}
	return nil
}

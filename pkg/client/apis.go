package client

import (
	"context"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/syncer"
)

var _ syncer.Remote = &Client{}

func schedulePath(id string, suffix ...string) string {
	p := "/schedules/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) List(ctx context.Context) ([]syncer.Summary, error) {
	var out []syncer.Summary
	if err := c.get(ctx, "/schedules", &out); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list schedules")
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (schedule.Schedule, error) {
	var out schedule.Schedule
	if err := c.get(ctx, schedulePath(id), &out); err != nil {
		return schedule.Schedule{}, pkgerrors.Wrapf(err, "failed to get schedule %s", id)
	}
	return out, nil
}

func (c *Client) SetSchedule(ctx context.Context, id string, body schedule.Body) error {
	if err := c.put(ctx, schedulePath(id), body, nil); err != nil {
		return pkgerrors.Wrapf(err, "failed to set schedule %s", id)
	}
	return nil
}

func (c *Client) SetConditions(ctx context.Context, id string, conditions schedule.Conditions) error {
	if conditions == nil {
		conditions = schedule.Conditions{}
	}
	if err := c.put(ctx, schedulePath(id, "conditions"), conditions, nil); err != nil {
		return pkgerrors.Wrapf(err, "failed to set conditions of %s", id)
	}
	return nil
}

func (c *Client) Remove(ctx context.Context, id string) error {
	if err := c.delete(ctx, schedulePath(id)); err != nil {
		return pkgerrors.Wrapf(err, "failed to remove schedule %s", id)
	}
	return nil
}

func (c *Client) Enable(ctx context.Context, id string) error {
	if err := c.post(ctx, schedulePath(id, "enable"), nil); err != nil {
		return pkgerrors.Wrapf(err, "failed to enable schedule %s", id)
	}
	return nil
}

func (c *Client) Disable(ctx context.Context, id string) error {
	if err := c.post(ctx, schedulePath(id, "disable"), nil); err != nil {
		return pkgerrors.Wrapf(err, "failed to disable schedule %s", id)
	}
	return nil
}

func (c *Client) EvaluationState(ctx context.Context) (syncer.EvaluationState, error) {
	var out syncer.EvaluationState
	if err := c.get(ctx, "/state", &out); err != nil {
		return out, pkgerrors.Wrap(err, "failed to get evaluation state")
	}
	return out, nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	if err := c.get(ctx, "/version", &v); err != nil {
		return "", pkgerrors.Wrap(err, "failed to get daemon version")
	}
	return v, nil
}

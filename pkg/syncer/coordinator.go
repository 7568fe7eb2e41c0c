package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/store"
)

const defaultConcurrency = 8

// Coordinator reconciles local edits with the remote store.
type Coordinator struct {
	remote      Remote
	store       *store.Store
	concurrency int
	log         logrus.FieldLogger

	refreshMu sync.Mutex
}

type Option func(*Coordinator)

// WithConcurrency bounds the number of detail calls in flight during a
// refresh.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Coordinator with an empty store.
func New(remote Remote, opts ...Option) *Coordinator {
	c := &Coordinator{
		remote:      remote,
		concurrency: defaultConcurrency,
		log:         logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	c.store = store.New(c.log)
	return c
}

// Store exposes the cache for reading.
func (c *Coordinator) Store() *store.Store {
	return c.store
}

// Close tears the coordinator down. Calls still in flight complete, but their
// results are discarded.
func (c *Coordinator) Close() {
	c.store.Close()
}

// Refresh lists the remote schedules, fetches every one of them and replaces
// the store's contents in one step. A listed schedule that turns out to be
// gone is dropped; any other failure leaves the store untouched.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.store.Closed() {
		return ErrClosed
	}

	list, err := c.remote.List(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to list schedules")
		return &RemoteError{Op: "list", Err: err}
	}

	results := make([]*schedule.Schedule, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, item := range list {
		g.Go(func() error {
			s, err := c.remote.Get(gctx, item.ID)
			if errors.Is(err, ErrNotFound) {
				c.log.WithField("schedule", item.ID).Warn("listed schedule is gone, dropping it")
				return nil
			}
			if err != nil {
				return &RemoteError{Op: "get", ID: item.ID, Err: err}
			}
			results[i] = &s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.WithError(err).Error("failed to refresh schedules")
		return err
	}

	scheds := make([]schedule.Schedule, 0, len(results))
	for _, s := range results {
		if s != nil {
			scheds = append(scheds, *s)
		}
	}

	if err := c.store.ReplaceAll(scheds); err != nil {
		return err
	}
	c.log.WithField("count", len(scheds)).Info("schedules refreshed")
	return nil
}

// Load fetches one schedule. On failure the stored copy, if any, is kept and
// the schedule is marked LoadError; reopening it retries.
func (c *Coordinator) Load(ctx context.Context, id string) error {
	if err := schedule.ValidateID(id); err != nil {
		return err
	}
	if _, err := c.store.Begin(id, store.Loading); err != nil {
		return err
	}

	s, err := c.remote.Get(ctx, id)
	if err != nil {
		rerr := &RemoteError{Op: "get", ID: id, Err: err}
		c.store.FailLoad(id, rerr)
		if c.store.Closed() {
			return ErrClosed
		}
		c.log.WithError(err).WithField("schedule", id).Error("failed to load schedule")
		return rerr
	}
	return c.store.FinishLoad(id, s)
}

// Create registers a new identifier and opens a blank draft for it. Nothing
// is sent to the remote store until Save.
func (c *Coordinator) Create(id string) (*store.Session, error) {
	return c.store.OpenDraft(id)
}

// Select changes the selection. An unsaved buffer on another schedule is
// discarded.
func (c *Coordinator) Select(id string) error {
	return c.store.Select(id)
}

// Edit opens an edit session on the selected schedule.
func (c *Coordinator) Edit() (*store.Session, error) {
	return c.store.OpenSession()
}

// Open selects id and starts editing it, loading it first when the store has
// no usable copy.
func (c *Coordinator) Open(ctx context.Context, id string) (*store.Session, error) {
	if !c.store.Has(id) {
		if err := c.Load(ctx, id); err != nil {
			return nil, err
		}
	}
	if err := c.store.Select(id); err != nil {
		return nil, err
	}
	return c.store.OpenSession()
}

// Session returns the open edit session, or nil.
func (c *Coordinator) Session() *store.Session {
	return c.store.Session()
}

// Save commits the edit buffer: first the schedule body, then the conditions.
// Local validation failures never reach the remote store. When the body is
// committed but the conditions are not, a *PartialCommitError is returned
// and the buffer is kept so that SaveConditions can retry.
func (c *Coordinator) Save(ctx context.Context) error {
	sess := c.store.Session()
	if sess == nil {
		return ErrNoSession
	}

	buf := sess.Snapshot()
	if err := buf.Validate(); err != nil {
		return err
	}
	id := buf.ID
	log := c.log.WithFields(logrus.Fields{
		"schedule": id,
		"session":  sess.ID(),
	})

	stored, existed := c.store.Get(id)
	if _, err := c.store.Begin(id, store.Saving); err != nil {
		return err
	}

	if err := c.remote.SetSchedule(ctx, id, buf.Body()); err != nil {
		rerr := &RemoteError{Op: "set schedule", ID: id, Err: err}
		c.store.AbortSave(id, rerr)
		log.WithError(err).Error("failed to save schedule")
		return rerr
	}
	if err := c.store.CommitBody(id, buf.Body()); err != nil {
		return err
	}

	if len(buf.Conditions) > 0 || (existed && len(stored.Conditions) > 0) {
		if err := c.commitConditions(ctx, id, buf.Conditions); err != nil {
			perr := &PartialCommitError{ID: id, Err: err}
			c.store.AbortSave(id, perr)
			log.WithError(err).Error("schedule saved but conditions were not")
			return perr
		}
	}

	if err := c.store.FinishSave(id); err != nil {
		return err
	}
	log.Info("schedule saved")
	return nil
}

// SaveConditions retries only the conditions of the open session, e.g. after
// a partial commit.
func (c *Coordinator) SaveConditions(ctx context.Context) error {
	sess := c.store.Session()
	if sess == nil {
		return ErrNoSession
	}
	buf := sess.Snapshot()
	if err := buf.Conditions.Validate(); err != nil {
		return err
	}
	if !c.store.Has(buf.ID) {
		return store.ErrUnknownSchedule
	}
	if _, err := c.store.Begin(buf.ID, store.Saving); err != nil {
		return err
	}

	if err := c.commitConditions(ctx, buf.ID, buf.Conditions); err != nil {
		perr := &PartialCommitError{ID: buf.ID, Err: err}
		c.store.AbortSave(buf.ID, perr)
		return perr
	}
	return c.store.FinishSave(buf.ID)
}

func (c *Coordinator) commitConditions(ctx context.Context, id string, cs schedule.Conditions) error {
	if cs == nil {
		cs = schedule.Conditions{}
	}
	if err := c.remote.SetConditions(ctx, id, cs); err != nil {
		return &RemoteError{Op: "set conditions", ID: id, Err: err}
	}
	return c.store.CommitConditions(id, cs)
}

// Delete removes a schedule remotely and, once that is confirmed, locally.
// A failure leaves the schedule in the store. Deleting a draft only discards
// it.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	if sess := c.store.Session(); sess != nil && sess.ScheduleID() == id && sess.Draft() {
		return c.store.DiscardSession()
	}

	prior, err := c.store.Begin(id, store.Deleting)
	if err != nil {
		return err
	}

	if err := c.remote.Remove(ctx, id); err != nil {
		rerr := &RemoteError{Op: "remove", ID: id, Err: err}
		c.store.Restore(id, prior, rerr)
		c.log.WithError(err).WithField("schedule", id).Error("failed to delete schedule")
		return rerr
	}

	if err := c.store.FinishDelete(id); err != nil {
		return err
	}
	c.log.WithField("schedule", id).Info("schedule deleted")
	return nil
}

// SetEnabled enables or disables a schedule without rewriting its body.
func (c *Coordinator) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if !c.store.Has(id) {
		return store.ErrUnknownSchedule
	}
	prior, err := c.store.Begin(id, store.Saving)
	if err != nil {
		return err
	}

	op, call := "enable", c.remote.Enable
	if !enabled {
		op, call = "disable", c.remote.Disable
	}
	if err := call(ctx, id); err != nil {
		rerr := &RemoteError{Op: op, ID: id, Err: err}
		c.store.Restore(id, prior, rerr)
		return rerr
	}
	return c.store.ApplyEnabled(id, prior, enabled)
}

// EvaluationState asks the remote store for the current tick.
func (c *Coordinator) EvaluationState(ctx context.Context) (EvaluationState, error) {
	st, err := c.remote.EvaluationState(ctx)
	if err != nil {
		return EvaluationState{}, &RemoteError{Op: "get evaluation state", Err: err}
	}
	if err := schedule.ValidateSlot(st.CurrentSlot); err != nil {
		return EvaluationState{}, &RemoteError{Op: "get evaluation state", Err: err}
	}
	return st, nil
}

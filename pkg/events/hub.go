package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// subscriberBuffer is how many events a slow subscriber may lag behind
// before events are dropped for it.
const subscriberBuffer = 16

// Subscription receives the events it asked for on C until it is passed to
// Unsubscribe, which closes C.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	names   map[string]struct{} // nil means every event
	dropped atomic.Uint64
}

func (s *Subscription) wants(name string) bool {
	if s.names == nil {
		return true
	}
	_, ok := s.names[name]
	return ok
}

// Dropped returns how many events were lost because C was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// EventHub fans published events out to subscriptions. The last event of
// each retained name is replayed to new subscribers, so e.g. a fresh
// watcher learns the current slot without waiting for the next boundary.
type EventHub struct {
	mu       sync.RWMutex
	subs     map[*Subscription]struct{}
	retained map[string]struct{}
	last     map[string]Event
}

func NewEventHub(retain ...string) *EventHub {
	h := &EventHub{
		subs:     make(map[*Subscription]struct{}),
		retained: make(map[string]struct{}, len(retain)),
		last:     make(map[string]Event),
	}
	for _, name := range retain {
		h.retained[name] = struct{}{}
	}
	return h
}

// Subscribe returns a subscription to the given event names, or to all
// events when none are given.
func (h *EventHub) Subscribe(names ...string) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch}
	if len(names) > 0 {
		sub.names = make(map[string]struct{}, len(names))
		for _, n := range names {
			sub.names[n] = struct{}{}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	for name, ev := range h.last {
		if sub.wants(name) {
			ch <- ev
		}
	}
	return sub
}

func (h *EventHub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

// Subscribers returns the number of active subscriptions.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *EventHub) Publish(name string, payload any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", name).Error("failed to encode event")
		return
	}
	msg := Event{Name: name, Data: b}

	if _, ok := h.retained[name]; ok {
		h.mu.Lock()
		h.last[name] = msg
		h.mu.Unlock()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.wants(name) {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			sub.dropped.Add(1)
			logrus.WithField("event", name).Debug("subscriber is slow, event dropped")
		}
	}
}

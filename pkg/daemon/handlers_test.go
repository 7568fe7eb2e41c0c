package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/timer24h/pkg/events"
	"github.com/charlie0129/timer24h/pkg/schedule"
	"github.com/charlie0129/timer24h/pkg/slotclock"
	"github.com/charlie0129/timer24h/pkg/storage"
	"github.com/charlie0129/timer24h/pkg/syncer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	backend, err := storage.OpenFile(filepath.Join(t.TempDir(), "schedules.json"))
	require.NoError(t, err)

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	clock := slotclock.New(
		slotclock.WithLocation(time.UTC),
		slotclock.WithClock(func() time.Time { return time.Date(2024, 5, 1, 7, 40, 0, 0, time.UTC) }),
	)
	return NewServer(backend, events.NewEventHub(), clock, l)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func slotsJSON(on ...int) string {
	var slots schedule.Slots
	for _, i := range on {
		slots[i] = true
	}
	b, _ := json.Marshal(slots)
	return string(b)
}

func TestSetAndGetSchedule(t *testing.T) {
	s := newTestServer(t)
	sub := s.Hub().Subscribe()

	w := do(t, s, http.MethodPut, "/schedules/morning",
		`{"target_entity_id":"switch.heater","enabled":true,"slots":`+slotsJSON(12, 13)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ev := <-sub.C
	assert.Equal(t, events.ScheduleUpdated, ev.Name)
	p, err := events.DecodeAs[events.ScheduleUpdatedEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, "morning", p.ScheduleID)
	assert.Equal(t, "schedule", p.Part)

	w = do(t, s, http.MethodGet, "/schedules/morning", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got schedule.Schedule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "switch.heater", got.Target)
	assert.Equal(t, 2, got.Slots.Count())

	w = do(t, s, http.MethodGet, "/schedules", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []syncer.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ActiveSlots)
}

func TestSetScheduleValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing target", `{"enabled":true,"slots":` + slotsJSON() + `}`},
		{"short slots", `{"target_entity_id":"switch.a","slots":[true,false]}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPut, "/schedules/a", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := do(t, s, http.MethodGet, "/schedules/a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetScheduleKeepsConditions(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/schedules/a",
		`{"target_entity_id":"switch.a","slots":`+slotsJSON()+`}`).Code)

	w := do(t, s, http.MethodPut, "/schedules/a/conditions",
		`[{"entity_id":"person.anna","expected":"home","policy":"defer"}]`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/schedules/a",
		`{"target_entity_id":"switch.b","slots":`+slotsJSON(1)+`}`).Code)

	var got schedule.Schedule
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/schedules/a", "").Body.Bytes(), &got))
	assert.Equal(t, "switch.b", got.Target)
	require.Len(t, got.Conditions, 1)
	assert.Equal(t, schedule.PolicyDefer, got.Conditions[0].Policy)

	w = do(t, s, http.MethodPut, "/schedules/a/conditions", `[{"entity_id":"x","policy":"sometimes"}]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPut, "/schedules/nope/conditions", `[]`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnableDisableRemove(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/schedules/a",
		`{"target_entity_id":"switch.a","enabled":true,"slots":`+slotsJSON()+`}`).Code)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/schedules/a/disable", "").Code)
	var got schedule.Schedule
	require.NoError(t, json.Unmarshal(do(t, s, http.MethodGet, "/schedules/a", "").Body.Bytes(), &got))
	assert.False(t, got.Enabled)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/schedules/a/enable", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/schedules/b/enable", "").Code)

	sub := s.Hub().Subscribe()
	require.Equal(t, http.StatusOK, do(t, s, http.MethodDelete, "/schedules/a", "").Code)
	ev := <-sub.C
	assert.Equal(t, events.ScheduleRemoved, ev.Name)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/schedules/a", "").Code)
}

func TestGetState(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var st syncer.EvaluationState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 15, st.CurrentSlot)
	assert.True(t, st.NextSlotTime.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)))
}

func TestGetVersion(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

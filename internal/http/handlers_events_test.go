package httpx

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

func TestEventHandlers_Create_OwnLodgeAdmin(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-la", lodgeAdminSession("lodge-1"))

	f.events.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(&model.Event{ID: "event-1", LodgeID: "lodge-1", Title: "Annual Dinner"}, nil).
		Times(1)

	rec := f.do(t, requestSpec{
		method: http.MethodPost,
		path:   "/api/events",
		body: map[string]any{
			"lodge_id":  "lodge-1",
			"title":     "Annual Dinner",
			"starts_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "event-1", decodeBody(t, rec)["id"])
}

func TestEventHandlers_Create_WrongLodge(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-la", lodgeAdminSession("lodge-1"))

	rec := f.do(t, requestSpec{
		method: http.MethodPost,
		path:   "/api/events",
		body: map[string]any{
			"lodge_id":  "lodge-2",
			"title":     "Annual Dinner",
			"starts_at": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "WRONG_LODGE", decodeBody(t, rec)["error"])
}

func TestEventHandlers_List_AfterFilter(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.events.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, opts model.EventsListOptions) ([]*model.Event, error) {
			if assert.NotNil(t, opts.After) {
				assert.True(t, opts.After.Equal(after))
			}
			return []*model.Event{}, nil
		}).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodGet,
		path:      "/api/events?after=2026-01-01T00:00:00Z",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventHandlers_List_BadAfter(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	rec := f.do(t, requestSpec{
		method:    http.MethodGet,
		path:      "/api/events?after=yesterday",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventHandlers_Delete_ScopedToEventLodge(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-la", lodgeAdminSession("lodge-1"))

	f.events.EXPECT().
		GetByID(gomock.Any(), "event-1").
		Return(&model.Event{ID: "event-1", LodgeID: "lodge-2"}, nil).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodDelete,
		path:      "/api/events/event-1",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "WRONG_LODGE", decodeBody(t, rec)["error"])
}

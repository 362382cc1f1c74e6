package httpx

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/data"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

func TestLodgeHandlers_Create_DistrictAdmin(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-da", districtAdminSession())

	f.lodges.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(&model.Lodge{ID: "lodge-1", Name: "Harmony No. 12", District: "North"}, nil).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodPost,
		path:      "/api/lodges",
		body:      map[string]any{"name": "Harmony No. 12", "district": "North"},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "lodge-1", decodeBody(t, rec)["id"])
}

func TestLodgeHandlers_Create_MemberInsufficientRole(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	rec := f.do(t, requestSpec{
		method:    http.MethodPost,
		path:      "/api/lodges",
		body:      map[string]any{"name": "Harmony No. 12", "district": "North"},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INSUFFICIENT_ROLE", decodeBody(t, rec)["error"])
}

func TestLodgeHandlers_Create_NoSession(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)

	rec := f.do(t, requestSpec{
		method: http.MethodPost,
		path:   "/api/lodges",
		body:   map[string]any{"name": "Harmony No. 12", "district": "North"},
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "NO_TOKEN", decodeBody(t, rec)["error"])
}

func TestLodgeHandlers_Create_NameConflict(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-da", districtAdminSession())

	f.lodges.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil, data.ErrLodgeNameExists).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodPost,
		path:      "/api/lodges",
		body:      map[string]any{"name": "Harmony No. 12", "district": "North"},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody(t, rec)["error"])
}

func TestLodgeHandlers_Get_NotFound(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	f.lodges.EXPECT().
		GetByID(gomock.Any(), "lodge-404").
		Return(nil, data.ErrLodgeNotFound).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodGet,
		path:      "/api/lodges/lodge-404",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeBody(t, rec)["error"])
}

func TestLodgeHandlers_Delete_RefusedWhileMembersRemain(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-da", districtAdminSession())

	f.lodges.EXPECT().MemberCount(gomock.Any(), "lodge-1").Return(4, nil).Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodDelete,
		path:      "/api/lodges/lodge-1",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "LODGE_NOT_EMPTY", decodeBody(t, rec)["error"])
}

func TestLodgeHandlers_List_FiltersParsed(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	f.lodges.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, opts model.LodgesListOptions) ([]*model.Lodge, error) {
			assert.Equal(t, 10, opts.Limit)
			assert.Equal(t, 20, opts.Offset)
			if assert.NotNil(t, opts.District) {
				assert.Equal(t, "North", *opts.District)
			}
			if assert.NotNil(t, opts.IsActive) {
				assert.True(t, *opts.IsActive)
			}
			return []*model.Lodge{}, nil
		}).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodGet,
		path:      "/api/lodges?limit=10&offset=20&district=North&active=true",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLodgeHandlers_Update_InvalidJSON(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-da", districtAdminSession())

	rec := f.do(t, requestSpec{
		method:    http.MethodPut,
		path:      "/api/lodges/lodge-1",
		body:      map[string]any{"unknown_field": true},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}

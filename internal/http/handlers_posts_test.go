package httpx

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/domain/model"
)

func TestPostHandlers_Create_AuthorIsCaller(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	f.posts.EXPECT().
		Create(gomock.Any(), "member-1", gomock.Any()).
		Return(&model.Post{ID: "post-1", LodgeID: "lodge-1", AuthorID: "member-1"}, nil).
		Times(1)

	rec := f.do(t, requestSpec{
		method: http.MethodPost,
		path:   "/api/posts",
		body: map[string]any{
			"lodge_id": "lodge-1",
			"title":    "Meeting minutes",
			"body":     "We met.",
		},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "member-1", decodeBody(t, rec)["author_id"])
}

func TestPostHandlers_Update_MemberInsufficient(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	f.posts.EXPECT().
		GetByID(gomock.Any(), "post-1").
		Return(&model.Post{ID: "post-1", LodgeID: "lodge-1"}, nil).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodPut,
		path:      "/api/posts/post-1",
		body:      map[string]any{"title": "Edited"},
		sessionID: sid,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INSUFFICIENT_ROLE", decodeBody(t, rec)["error"])
}

func TestPostHandlers_List_PublishedFilter(t *testing.T) {
	t.Parallel()
	f := newRouterFixture(t)
	sid := f.addSession("sess-m", memberSession("lodge-1"))

	f.posts.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, opts model.PostsListOptions) ([]*model.Post, error) {
			assert.True(t, opts.PublishedOnly)
			return []*model.Post{}, nil
		}).
		Times(1)

	rec := f.do(t, requestSpec{
		method:    http.MethodGet,
		path:      "/api/posts?published=true",
		sessionID: sid,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

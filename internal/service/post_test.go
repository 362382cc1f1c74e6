package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/mocks"
	"github.com/lodgeworks/lodge-api/internal/testutil"
)

const testPostID = "post-123"

// newPostService creates a mock repository and service for testing.
func newPostService(t *testing.T) (*mocks.MockPostRepository, *PostService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	postRepo := mocks.NewMockPostRepository(ctrl)

	service, err := NewPostService(PostServiceOptions{
		Guard: authz.NewGuard(authz.GuardOptions{}),
		Posts: postRepo,
	})
	require.NoError(t, err)

	return postRepo, service
}

func TestPostService_Create_AuthorIsCaller(t *testing.T) {
	t.Parallel()
	postRepo, service := newPostService(t)

	ctx := context.Background()
	p := testutil.NewPrincipal("m-1").WithPrimaryLodge(testHomeLodge).Build()
	req := &model.CreatePostRequest{
		LodgeID: testHomeLodge,
		Title:   "Summer picnic",
		Body:    "Bring a dish to share.",
	}

	postRepo.EXPECT().
		Create(ctx, "m-1", req).
		Return(&model.Post{ID: testPostID, LodgeID: testHomeLodge, AuthorID: "m-1"}, nil).
		Times(1)

	result, err := service.Create(ctx, p, req)

	require.NoError(t, err)
	assert.Equal(t, "m-1", result.AuthorID)
}

func TestPostService_Create_NoToken(t *testing.T) {
	t.Parallel()
	_, service := newPostService(t)

	_, err := service.Create(context.Background(), nil, &model.CreatePostRequest{
		LodgeID: testHomeLodge, Title: "x", Body: "y",
	})
	requireDenied(t, err, authz.ReasonNoToken)
}

func TestPostService_Update_WrongLodge(t *testing.T) {
	t.Parallel()
	postRepo, service := newPostService(t)

	ctx := context.Background()
	existing := &model.Post{ID: testPostID, LodgeID: testHomeLodge}
	postRepo.EXPECT().GetByID(ctx, testPostID).Return(existing, nil).Times(1)

	p := testutil.NewPrincipal("la-2").
		WithGlobalRole(auth.RoleLodgeAdmin).
		WithPrimaryLodge(testOtherLodge).
		Build()

	_, err := service.Update(ctx, p, testPostID, model.UpdatePostRequest{Title: stringPtr("edit")})
	requireDenied(t, err, authz.ReasonWrongLodge)
}

func TestPostService_Update_MemberInsufficient(t *testing.T) {
	t.Parallel()
	postRepo, service := newPostService(t)

	ctx := context.Background()
	// Authors do not get to edit their own published posts; edits are
	// lodge-admin work.
	existing := &model.Post{ID: testPostID, LodgeID: testHomeLodge, AuthorID: "m-1"}
	postRepo.EXPECT().GetByID(ctx, testPostID).Return(existing, nil).Times(1)

	p := testutil.NewPrincipal("m-1").WithPrimaryLodge(testHomeLodge).Build()

	_, err := service.Update(ctx, p, testPostID, model.UpdatePostRequest{Body: stringPtr("edit")})
	requireDenied(t, err, authz.ReasonInsufficientRole)
}

func TestPostService_Delete_OwnLodgeAdmin(t *testing.T) {
	t.Parallel()
	postRepo, service := newPostService(t)

	ctx := context.Background()
	existing := &model.Post{ID: testPostID, LodgeID: testHomeLodge}
	postRepo.EXPECT().GetByID(ctx, testPostID).Return(existing, nil).Times(1)
	postRepo.EXPECT().Delete(ctx, testPostID).Return(true, nil).Times(1)

	p := testutil.NewPrincipal("la-1").
		WithGlobalRole(auth.RoleLodgeAdmin).
		WithPrimaryLodge(testHomeLodge).
		Build()

	ok, err := service.Delete(ctx, p, testPostID)

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostService_List_PublishedFilterPassedThrough(t *testing.T) {
	t.Parallel()
	postRepo, service := newPostService(t)

	ctx := context.Background()
	p := testutil.NewPrincipal("m-1").Build()
	opts := model.PostsListOptions{PublishedOnly: true, Limit: 20}

	postRepo.EXPECT().
		List(ctx, opts).
		Return([]*model.Post{{ID: testPostID}}, nil).
		Times(1)

	result, err := service.List(ctx, p, opts)

	require.NoError(t, err)
	require.Len(t, result, 1)
}

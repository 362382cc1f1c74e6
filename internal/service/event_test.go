package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/domain/auth"
	"github.com/lodgeworks/lodge-api/internal/domain/model"
	"github.com/lodgeworks/lodge-api/internal/mocks"
	"github.com/lodgeworks/lodge-api/internal/testutil"
)

const testEventID = "event-123"

// newEventService creates a mock repository and service for testing.
func newEventService(t *testing.T) (*mocks.MockEventRepository, *EventService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	eventRepo := mocks.NewMockEventRepository(ctrl)

	service, err := NewEventService(EventServiceOptions{
		Guard:  authz.NewGuard(authz.GuardOptions{}),
		Events: eventRepo,
	})
	require.NoError(t, err)

	return eventRepo, service
}

func TestEventService_Create_OwnLodgeAdmin(t *testing.T) {
	t.Parallel()
	eventRepo, service := newEventService(t)

	ctx := context.Background()
	p := testutil.NewPrincipal("la-1").
		WithGlobalRole(auth.RoleLodgeAdmin).
		WithPrimaryLodge(testHomeLodge).
		Build()
	req := &model.CreateEventRequest{
		LodgeID:  testHomeLodge,
		Title:    "Stated Meeting",
		StartsAt: time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC),
	}

	eventRepo.EXPECT().
		Create(ctx, req).
		Return(&model.Event{ID: testEventID, LodgeID: testHomeLodge}, nil).
		Times(1)

	result, err := service.Create(ctx, p, req)

	require.NoError(t, err)
	assert.Equal(t, testEventID, result.ID)
}

func TestEventService_Create_WrongLodge(t *testing.T) {
	t.Parallel()
	_, service := newEventService(t)

	p := testutil.NewPrincipal("la-2").
		WithGlobalRole(auth.RoleLodgeAdmin).
		WithPrimaryLodge(testOtherLodge).
		Build()
	req := &model.CreateEventRequest{
		LodgeID:  testHomeLodge,
		Title:    "Stated Meeting",
		StartsAt: time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC),
	}

	_, err := service.Create(context.Background(), p, req)
	requireDenied(t, err, authz.ReasonWrongLodge)
}

func TestEventService_Create_MemberInsufficient(t *testing.T) {
	t.Parallel()
	_, service := newEventService(t)

	p := testutil.NewPrincipal("m-1").WithPrimaryLodge(testHomeLodge).Build()
	req := &model.CreateEventRequest{
		LodgeID:  testHomeLodge,
		Title:    "Stated Meeting",
		StartsAt: time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC),
	}

	_, err := service.Create(context.Background(), p, req)
	requireDenied(t, err, authz.ReasonInsufficientRole)
}

func TestEventService_Update_ScopedToEventLodge(t *testing.T) {
	t.Parallel()
	eventRepo, service := newEventService(t)

	ctx := context.Background()
	existing := &model.Event{ID: testEventID, LodgeID: testHomeLodge}
	req := model.UpdateEventRequest{Title: stringPtr("Called Meeting")}

	eventRepo.EXPECT().GetByID(ctx, testEventID).Return(existing, nil).Times(1)
	eventRepo.EXPECT().
		Update(ctx, testEventID, req).
		Return(&model.Event{ID: testEventID, LodgeID: testHomeLodge, Title: "Called Meeting"}, nil).
		Times(1)

	p := testutil.NewPrincipal("la-1").
		WithGlobalRole(auth.RoleLodgeAdmin).
		WithPrimaryLodge(testHomeLodge).
		Build()

	result, err := service.Update(ctx, p, testEventID, req)

	require.NoError(t, err)
	assert.Equal(t, "Called Meeting", result.Title)
}

func TestEventService_Delete_WrongLodge(t *testing.T) {
	t.Parallel()
	eventRepo, service := newEventService(t)

	ctx := context.Background()
	existing := &model.Event{ID: testEventID, LodgeID: testHomeLodge}
	eventRepo.EXPECT().GetByID(ctx, testEventID).Return(existing, nil).Times(1)

	p := testutil.NewPrincipal("la-2").
		WithGlobalRole(auth.RoleLodgeAdmin).
		WithPrimaryLodge(testOtherLodge).
		Build()

	ok, err := service.Delete(ctx, p, testEventID)

	requireDenied(t, err, authz.ReasonWrongLodge)
	assert.False(t, ok)
}

func TestEventService_List_MemberAllowed(t *testing.T) {
	t.Parallel()
	eventRepo, service := newEventService(t)

	ctx := context.Background()
	p := testutil.NewPrincipal("m-1").Build()
	after := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	opts := model.EventsListOptions{After: &after}

	eventRepo.EXPECT().
		List(ctx, opts).
		Return([]*model.Event{{ID: testEventID}}, nil).
		Times(1)

	result, err := service.List(ctx, p, opts)

	require.NoError(t, err)
	require.Len(t, result, 1)
}

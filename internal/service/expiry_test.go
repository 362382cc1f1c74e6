package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lodgeworks/lodge-api/config"
	"github.com/lodgeworks/lodge-api/internal/mocks"
	"github.com/lodgeworks/lodge-api/internal/observability/notify"
	"github.com/lodgeworks/lodge-api/internal/service/failurenotifier"
)

func newExpiryService(t *testing.T, repo *mocks.MockCandidateRepository, cfg config.ExpiryConfig) *ExpiryService {
	t.Helper()
	service, err := NewExpiryService(ExpiryServiceOptions{
		Candidates: repo,
		Config:     cfg,
		Now:        func() time.Time { return testSweepTime },
	})
	require.NoError(t, err)
	return service
}

func TestExpiryService_Sweep_BatchesUntilEmpty(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockCandidateRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().ExpireOverdue(gomock.Any(), testSweepTime.UTC(), 2).Return(int64(2), nil),
		repo.EXPECT().ExpireOverdue(gomock.Any(), testSweepTime.UTC(), 2).Return(int64(1), nil),
		repo.EXPECT().ExpireOverdue(gomock.Any(), testSweepTime.UTC(), 2).Return(int64(0), nil),
	)

	service := newExpiryService(t, repo, config.ExpiryConfig{Interval: time.Minute, BatchSize: 2})

	total, err := service.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestExpiryService_Sweep_PropagatesRepositoryError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repoErr := errors.New("deadlock detected")
	repo := mocks.NewMockCandidateRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().ExpireOverdue(gomock.Any(), gomock.Any(), 10).Return(int64(4), nil),
		repo.EXPECT().ExpireOverdue(gomock.Any(), gomock.Any(), 10).Return(int64(0), repoErr),
	)

	service := newExpiryService(t, repo, config.ExpiryConfig{Interval: time.Minute, BatchSize: 10})

	total, err := service.Sweep(context.Background())
	require.ErrorIs(t, err, repoErr)
	// Rows expired before the failure still count.
	assert.Equal(t, int64(4), total)
}

func TestExpiryService_Sweep_NotifiesOnFailure(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repoErr := errors.New("connection reset")
	repo := mocks.NewMockCandidateRepository(ctrl)
	repo.EXPECT().ExpireOverdue(gomock.Any(), gomock.Any(), 5).Return(int64(0), repoErr)

	var received []notify.SweepFailurePayload
	notifier := failurenotifier.NewService(failurenotifier.Options{
		Sinks: []failurenotifier.SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.SweepFailurePayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
	})

	service, err := NewExpiryService(ExpiryServiceOptions{
		Candidates:      repo,
		Config:          config.ExpiryConfig{Interval: time.Minute, BatchSize: 5},
		FailureNotifier: notifier,
		Now:             func() time.Time { return testSweepTime },
	})
	require.NoError(t, err)

	_, err = service.Sweep(context.Background())
	require.ErrorIs(t, err, repoErr)

	require.Len(t, received, 1)
	assert.Equal(t, "candidate_expiry", received[0].Component)
	assert.Equal(t, "connection reset", received[0].Error)
	assert.Equal(t, notify.SeverityCritical, received[0].Severity)
	assert.Equal(t, testSweepTime.UTC(), received[0].OccurredAt)
	assert.NotEmpty(t, received[0].ErrorClass)
}

func TestExpiryService_Sweep_SkipsNotificationOnCancel(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockCandidateRepository(ctrl)
	repo.EXPECT().ExpireOverdue(gomock.Any(), gomock.Any(), 5).Return(int64(0), context.Canceled)

	var called bool
	notifier := failurenotifier.NewService(failurenotifier.Options{
		Sinks: []failurenotifier.SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.SweepFailurePayload) error {
					called = true
					return nil
				}),
			},
		},
	})

	service, err := NewExpiryService(ExpiryServiceOptions{
		Candidates:      repo,
		Config:          config.ExpiryConfig{Interval: time.Minute, BatchSize: 5},
		FailureNotifier: notifier,
		Now:             func() time.Time { return testSweepTime },
	})
	require.NoError(t, err)

	_, err = service.Sweep(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called, "cancellation should not page anyone")
}

func TestExpiryService_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	ctx, cancel := context.WithCancel(context.Background())

	repo := mocks.NewMockCandidateRepository(ctrl)
	repo.EXPECT().
		ExpireOverdue(gomock.Any(), gomock.Any(), 1).
		DoAndReturn(func(context.Context, time.Time, int) (int64, error) {
			cancel()
			return 0, nil
		}).
		MinTimes(1)

	// A short interval keeps jitter (10% of interval) negligible.
	service := newExpiryService(t, repo, config.ExpiryConfig{Interval: 10 * time.Millisecond, BatchSize: 1})

	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expiry service did not stop after cancellation")
	}
}

func TestExpiryService_RequiresRepository(t *testing.T) {
	t.Parallel()
	_, err := NewExpiryService(ExpiryServiceOptions{Config: config.ExpiryConfig{Interval: time.Minute}})
	require.Error(t, err)
}

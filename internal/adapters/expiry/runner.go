// Package expiry provides an adapter for running the candidate expiry sweeper.
package expiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lodgeworks/lodge-api/config"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/data"
	"github.com/lodgeworks/lodge-api/internal/observability/statsd"
	"github.com/lodgeworks/lodge-api/internal/service"
	"github.com/lodgeworks/lodge-api/internal/service/failurenotifier"
)

// Runner constructs the expiry service and runs the sweep loop.
type Runner struct {
	expiry *service.ExpiryService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.ExpiryConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo            core.CandidateRepository
	Metrics         statsd.Sink
	FailureNotifier *failurenotifier.Service
}

// NewRunner creates a new expiry runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Repo == nil && opts.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	repo := opts.Repo
	if repo == nil {
		repo = data.NewCandidateRepo(opts.DB)
	}

	svc, err := service.NewExpiryService(service.ExpiryServiceOptions{
		Candidates:      repo,
		Config:          opts.Config,
		Logger:          opts.Logger,
		Metrics:         opts.Metrics,
		FailureNotifier: opts.FailureNotifier,
	})
	if err != nil {
		return nil, fmt.Errorf("wire expiry service: %w", err)
	}

	return &Runner{expiry: svc, logger: opts.Logger}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting expiry runner")
	return r.expiry.Run(ctx)
}

// SweepOnce performs a single sweep pass and returns the number of
// candidates expired. Used by the one-shot admin command.
func (r *Runner) SweepOnce(ctx context.Context) (int64, error) {
	return r.expiry.Sweep(ctx)
}

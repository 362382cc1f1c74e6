package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/lodgeworks/lodge-api/config"
	"github.com/lodgeworks/lodge-api/internal/core"
	obserrors "github.com/lodgeworks/lodge-api/internal/observability/errors"
	"github.com/lodgeworks/lodge-api/internal/observability/metrics"
	"github.com/lodgeworks/lodge-api/internal/observability/notify"
	"github.com/lodgeworks/lodge-api/internal/observability/statsd"
	"github.com/lodgeworks/lodge-api/internal/service/failurenotifier"
)

// expiryComponent tags sweep failure notifications and logs.
const expiryComponent = "candidate_expiry"

// ExpiryServiceOptions groups dependencies for ExpiryService.
type ExpiryServiceOptions struct {
	Candidates      core.CandidateRepository // Required: candidate repository
	Config          config.ExpiryConfig      // Required: expiry configuration
	Logger          *slog.Logger             // Optional: structured logger
	Metrics         statsd.Sink              // Optional: metrics sink (StatsD-compatible)
	FailureNotifier *failurenotifier.Service // Optional: sweep failure notification fan-out
	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time
}

// ExpiryService sweeps candidates whose review window has closed, marking
// pending rows past their end date as expired. It runs alongside the HTTP
// server (or standalone in expiry mode) and is safe to run on multiple
// instances: the repository takes row locks with SKIP LOCKED.
type ExpiryService struct {
	candidates      core.CandidateRepository
	config          config.ExpiryConfig
	logger          *slog.Logger
	metrics         statsd.Sink
	failureNotifier *failurenotifier.Service
	now             func() time.Time
}

// NewExpiryService constructs a new ExpiryService.
func NewExpiryService(opts ExpiryServiceOptions) (*ExpiryService, error) {
	if opts.Candidates == nil {
		return nil, errors.New("CandidateRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "expiry_service")
		logger.Debug("ExpiryService initialized",
			"interval", opts.Config.Interval,
			"batch_size", opts.Config.BatchSize,
		)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &ExpiryService{
		candidates:      opts.Candidates,
		config:          opts.Config,
		logger:          logger,
		metrics:         opts.Metrics,
		failureNotifier: opts.FailureNotifier,
		now:             now,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ExpiryService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting expiry service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Sweep immediately after jitter
	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "expiry service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
				// Continue running despite errors
			}
		}
	}
}

// Sweep expires overdue pending candidates, looping in batches until no
// rows remain, and returns the total expired. It is also called directly by
// the one-shot admin command.
func (s *ExpiryService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	var total int64
	var sweepErr error

	for {
		count, err := s.candidates.ExpireOverdue(ctx, s.now().UTC(), s.config.BatchSize)
		total += count
		if err != nil {
			sweepErr = err
			break
		}
		if count == 0 {
			break
		}
		// Check context between batches
		if ctx.Err() != nil {
			sweepErr = ctx.Err()
			break
		}
	}

	metrics.EmitSweep(s.metrics, metrics.SweepMetric{
		Expired:  total,
		Duration: time.Since(start),
		Err:      suppressContextCancellation(sweepErr),
	})

	if sweepErr != nil && !isContextCancellation(sweepErr) && s.failureNotifier != nil {
		s.failureNotifier.NotifySweepFailure(ctx, notify.SweepFailurePayload{
			Component:  expiryComponent,
			Error:      sweepErr.Error(),
			ErrorClass: obserrors.Classify(sweepErr),
			Severity:   notify.SeverityCritical,
			OccurredAt: s.now().UTC(),
		})
	}

	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "expired overdue candidates", "count", total)
	}
	return total, sweepErr
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ExpiryService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

func (s *ExpiryService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func suppressContextCancellation(err error) error {
	if isContextCancellation(err) {
		return nil
	}
	return err
}

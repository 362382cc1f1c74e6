// Package failurenotifier fans sweep failure events out to the
// configured alerting sinks (Slack, PagerDuty).
package failurenotifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lodgeworks/lodge-api/internal/observability/notify"
)

// SinkRegistration pairs a sink with the name used in delivery logs.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service delivers each failure event to every registered sink. A sink
// that fails to deliver is logged and does not block the others.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService drops nil sinks and names unnamed ones so log lines always
// identify a delivery target.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "failure_notifier")
	}

	sinks := make([]SinkRegistration, 0, len(opts.Sinks))
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}
	if len(sinks) == 0 {
		sinks = nil
	}

	return &Service{logger: logger, sinks: sinks}
}

// NotifySweepFailure sends the payload to all sinks concurrently and
// waits for every delivery attempt to finish.
func (s *Service) NotifySweepFailure(ctx context.Context, payload notify.SweepFailurePayload) {
	if len(s.sinks) == 0 {
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendSweepFailure(ctx, payload); err != nil {
				s.logger.Error("failure notifier delivery error",
					"sink", entry.Name,
					"component", payload.Component,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether any sinks are registered.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

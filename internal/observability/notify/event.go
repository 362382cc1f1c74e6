// Package notify defines the event payload and sink contract shared by
// the alerting channels.
package notify

import (
	"context"
	"time"
)

// Severities recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// SweepFailurePayload describes a failed background sweep, currently
// the candidate expiry pass.
type SweepFailurePayload struct {
	Component  string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink delivers a sweep failure to one destination.
type Sink interface {
	SendSweepFailure(ctx context.Context, payload SweepFailurePayload) error
}

// SinkFunc adapts a plain function to Sink. A nil SinkFunc is a no-op,
// which keeps test wiring terse.
type SinkFunc func(ctx context.Context, payload SweepFailurePayload) error

func (f SinkFunc) SendSweepFailure(ctx context.Context, payload SweepFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

package metrics

import (
	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/observability/statsd"
)

// DecisionCounter emits an allow/deny counter for every guard decision,
// tagged by resource kind, action, and (for denials) the reason code. It is
// non-blocking: the statsd client writes UDP and drops on failure.
type DecisionCounter struct {
	sink statsd.Sink
}

var _ authz.DecisionSink = (*DecisionCounter)(nil)

// NewDecisionCounter wraps a statsd sink as a guard decision sink.
func NewDecisionCounter(sink statsd.Sink) *DecisionCounter {
	return &DecisionCounter{sink: sink}
}

// Decision implements authz.DecisionSink.
func (c *DecisionCounter) Decision(kind authz.Kind, action authz.Action, d authz.Decision) {
	if c == nil || c.sink == nil {
		return
	}
	tags := map[string]string{
		"kind":   string(kind),
		"action": string(action),
	}
	if d.Allowed {
		c.sink.Count("authz.allowed", 1, tags)
		return
	}
	if d.Reason != authz.ReasonNone {
		tags["reason"] = string(d.Reason)
	}
	c.sink.Count("authz.denied", 1, tags)
}

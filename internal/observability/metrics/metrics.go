package metrics

import (
	"time"

	obserrors "github.com/lodgeworks/lodge-api/internal/observability/errors"
	"github.com/lodgeworks/lodge-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// SweepMetric captures details about one expiry sweep for metric emission.
type SweepMetric struct {
	Expired  int64
	Duration time.Duration
	Err      error
}

// EmitSweep emits standardised candidate-expiry sweep metrics.
func EmitSweep(sink statsd.Sink, in SweepMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if in.Err != nil {
		result = ResultError
	} else if in.Expired == 0 {
		result = ResultNoop
	}

	tags := map[string]string{"result": result}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("expiry.sweep", 1, tags)
	if in.Expired > 0 {
		sink.Count("expiry.candidates_expired", in.Expired, CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("expiry.sweep_duration", in.Duration, CloneTags(tags))
	}
	if in.Err == nil {
		sink.Gauge("expiry.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

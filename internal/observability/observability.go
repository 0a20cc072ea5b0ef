// Package observability provides the metrics and tracing hooks wrapped around
// every slice request.
package observability

import (
	"context"
	"time"
)

// Recorder observes the outcome of one request.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around requests.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, Span)
}

// Span is ended exactly once with the request error, if any.
type Span interface {
	End(err error)
}

// Nop returns a recorder that discards observations.
func Nop() Recorder { return nopRecorder{} }

// NopTracer returns a tracer whose spans do nothing.
func NopTracer() Tracer { return nopTracer{} }

type nopRecorder struct{}

func (nopRecorder) Observe(context.Context, string, bool, time.Duration) {}

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End(error) {}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

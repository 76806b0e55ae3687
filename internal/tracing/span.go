package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartTaskSpan starts a span covering one simulated agent task.
func StartTaskSpan(ctx context.Context, tracer trace.Tracer, taskName string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "simulate_agent_task",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String("agentpulse.task_name", taskName))
	return ctx, span
}

// EndTaskSpan finishes a task span, recording the measured duration and the
// error status if the task failed.
func EndTaskSpan(span trace.Span, elapsed time.Duration, err error) {
	span.SetAttributes(attribute.Float64("agentpulse.response_time_seconds", elapsed.Seconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

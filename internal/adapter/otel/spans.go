package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "seogov"

// StartCycleSpan starts the root span of a governance cycle.
func StartCycleSpan(ctx context.Context, cycleID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "governance.cycle",
		trace.WithAttributes(attribute.String("cycle.id", cycleID)),
	)
}

// StartSectionSpan starts a span for one isolated section of a cycle.
func StartSectionSpan(ctx context.Context, section string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "governance.section."+section,
		trace.WithAttributes(attribute.String("cycle.section", section)),
	)
}

// StartApprovalSpan starts a span for executing an approved action.
func StartApprovalSpan(ctx context.Context, actionID, kind string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "action.approve",
		trace.WithAttributes(
			attribute.String("action.id", actionID),
			attribute.String("action.kind", kind),
		),
	)
}

// StartScanSpan starts a span for fetching one page.
func StartScanSpan(ctx context.Context, url string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "content.scan",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", url)),
	)
}

// EndSpan records err (if any) and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

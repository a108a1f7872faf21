package observability

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/seqkit/errors"
)

// Terminal statuses.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// Terminal tracks one run of a pipeline terminal operation: its span, its
// start time and the metrics it reports into.
type Terminal struct {
	PipelineID string
	Pipeline   string
	Operation  string
	Stages     int
	StartTime  time.Time
	Metrics    *Metrics

	span trace.Span
}

// StartTerminal starts a span named SpanPrefix+operation on tracer. If
// tracer is nil the pipeline tracer from the global provider is used; if
// metrics is nil metric recording is skipped.
func StartTerminal(ctx context.Context, tracer trace.Tracer, metrics *Metrics, pipelineID, pipelineName, operation string, stages int) (context.Context, *Terminal) {
	if tracer == nil {
		tracer = Tracer(InstrumentationName)
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrPipelineID, pipelineID),
		attribute.String(AttrOperation, operation),
		attribute.Int(AttrStages, stages),
	}
	if pipelineName != "" {
		attrs = append(attrs, attribute.String(AttrPipelineName, pipelineName))
	}
	ctx, span := tracer.Start(ctx, SpanPrefix+operation, trace.WithAttributes(attrs...))
	return ctx, &Terminal{
		PipelineID: pipelineID,
		Pipeline:   pipelineName,
		Operation:  operation,
		Stages:     stages,
		StartTime:  time.Now(),
		Metrics:    metrics,
		span:       span,
	}
}

// End closes the span and records the terminal metrics. It returns the
// status it recorded.
func (t *Terminal) End(ctx context.Context, elements int, err error) string {
	duration := time.Since(t.StartTime)
	status := StatusOf(err)

	if err != nil {
		code := string(errors.Code(err))
		if code == "" {
			code = status
		}
		t.span.RecordError(err)
		t.span.SetStatus(codes.Error, err.Error())
		t.span.SetAttributes(
			attribute.String(AttrErrorMessage, err.Error()),
			attribute.String(AttrErrorCode, code),
		)
		if t.Metrics != nil {
			t.Metrics.RecordError(ctx, code, t.Operation)
		}
	}

	t.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrElements, elements),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	t.span.End()

	if t.Metrics != nil {
		t.Metrics.RecordTerminal(ctx, t.Operation, status, elements, duration)
	}
	return status
}

// Duration returns the elapsed time since the terminal started.
func (t *Terminal) Duration() time.Duration {
	return time.Since(t.StartTime)
}

// StatusOf maps a terminal error to its status label.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}

package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes a span with:
//   - Span name: event.Kind (e.g., "stage_start", "workflow_error")
//   - Attributes: runID, step, stage, and all event.Meta fields
//   - Status: error when the event carries an "error" metadata field
//
// Spans are ended immediately; events represent points in time rather than
// durations (durations travel in the "duration_seconds" attribute).
//
// Usage:
//
//	tracer := otel.Tracer("socialflow")
//	emitter := emit.NewOTelEmitter(tracer)
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter backed by the given tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates a span for the event.
func (o *OTelEmitter) Emit(event Event) {
	if o.tracer == nil {
		return
	}

	_, span := o.tracer.Start(context.Background(), event.Kind)
	defer span.End()

	span.SetAttributes(
		attribute.String("run_id", event.RunID),
		attribute.Int("step", event.Step),
	)
	if event.Stage != "" {
		span.SetAttributes(attribute.String("stage", event.Stage))
	}
	if event.Msg != "" {
		span.SetAttributes(attribute.String("msg", event.Msg))
	}

	for key, value := range event.Meta {
		span.SetAttributes(metaAttribute(key, value))
	}

	if errVal, ok := event.Meta["error"]; ok {
		span.SetStatus(codes.Error, fmt.Sprintf("%v", errVal))
	}
}

// metaAttribute converts a metadata value to a typed span attribute,
// falling back to its string rendering.
func metaAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

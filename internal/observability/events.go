package observability

import (
	"context"

	"resumetailor/internal/events"

	"go.opentelemetry.io/otel/attribute"
)

// EventMetrics turns session events into business metrics
type EventMetrics struct {
	om *ObservabilityManager
}

// NewEventMetrics creates a publisher that counts session events
func NewEventMetrics(om *ObservabilityManager) *EventMetrics {
	return &EventMetrics{om: om}
}

func (e *EventMetrics) Publish(ctx context.Context, event events.Event) error {
	if e.om == nil {
		return nil
	}
	switch event.Type {
	case events.TypeAnalysisCompleted:
		e.om.RecordBusinessMetric(ctx, MetricJobAnalyzed, true)
	case events.TypeRescoreCompleted:
		e.om.RecordBusinessMetric(ctx, MetricResumeRescored, true)
	case events.TypeGapApplied:
		e.om.RecordBusinessMetric(ctx, MetricGapApplied, true)
	case events.TypeExported:
		e.om.RecordBusinessMetric(ctx, MetricResumeExported, true)
	case events.TypeFailed:
		e.om.RecordBusinessMetric(ctx, MetricSessionFailed, false, attribute.String("phase", string(event.Phase)))
	}
	return nil
}

func (e *EventMetrics) Close() error { return nil }

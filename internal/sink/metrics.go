package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricChecks       = "band_name_checks"
	metricResponseTime = "content_safety_response_time"
	metricDetections   = "category_detections"
)

// MetricsSink records counters and latency through an OpenTelemetry meter.
// Instruments are created once; the SDK serializes updates.
type MetricsSink struct {
	checks       metric.Int64Counter
	responseTime metric.Float64Histogram
	detections   metric.Int64Counter
}

func NewMetricsSink(meter metric.Meter) (*MetricsSink, error) {
	checks, err := meter.Int64Counter(metricChecks,
		metric.WithDescription("Count of band name checks"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("create %s counter: %w", metricChecks, err)
	}

	responseTime, err := meter.Float64Histogram(metricResponseTime,
		metric.WithDescription("Response time of the classification service"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create %s histogram: %w", metricResponseTime, err)
	}

	detections, err := meter.Int64Counter(metricDetections,
		metric.WithDescription("Count of non-safe category detections"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("create %s counter: %w", metricDetections, err)
	}

	return &MetricsSink{
		checks:       checks,
		responseTime: responseTime,
		detections:   detections,
	}, nil
}

func (s *MetricsSink) Name() string {
	return "metrics"
}

func (s *MetricsSink) Write(ctx context.Context, record models.BatchRecord) error {
	verdict := metric.WithAttributes(attribute.String("verdict", string(record.Verdict)))

	s.checks.Add(ctx, 1, verdict)
	s.responseTime.Record(ctx, record.Elapsed.Seconds(), verdict)

	for _, c := range record.Categories {
		if c.Severity <= models.SeveritySafe {
			continue
		}
		s.detections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", string(c.Category)),
			attribute.String("severity", strconv.Itoa(int(c.Severity))),
		))
	}

	return nil
}

package warp

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/scorewarp/scorewarper/internal/warp"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// counters are the applier's metrics. The global meter is a no-op unless a
// provider has been installed.
type counters struct {
	shifted metric.Int64Counter
	skipped metric.Int64Counter
}

func newCounters() (*counters, error) {
	m := meter()
	c := &counters{}

	var err error
	c.shifted, err = m.Int64Counter(
		"warp.primitives.shifted",
		metric.WithDescription("Primitives displaced by the warp"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shifted counter: %w", err)
	}

	c.skipped, err = m.Int64Counter(
		"warp.primitives.skipped",
		metric.WithDescription("Primitives left in place by a defensive no-op"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	return c, nil
}

func (c *counters) recordShifted(kind string) {
	c.shifted.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (c *counters) recordSkipped(kind string) {
	c.skipped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

package reader

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/arloliu/colchunk/reader"

type telemetry struct {
	chunks   metric.Int64Counter
	rows     metric.Int64Counter
	staged   metric.Int64Counter
	overruns metric.Int64Counter
	engine   attribute.KeyValue
	attrs    metric.MeasurementOption
}

func newTelemetry(mp metric.MeterProvider, engineName string) (*telemetry, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)

	engine := attribute.String("engine", engineName)
	t := &telemetry{engine: engine, attrs: metric.WithAttributes(engine)}

	var err error
	t.chunks, err = meter.Int64Counter("colchunk.reader.chunks",
		metric.WithDescription("Number of chunks emitted by chunked readers"))
	if err != nil {
		return nil, fmt.Errorf("failed to create chunks counter: %w", err)
	}

	t.rows, err = meter.Int64Counter("colchunk.reader.rows",
		metric.WithDescription("Number of rows emitted by chunked readers"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rows counter: %w", err)
	}

	t.staged, err = meter.Int64Counter("colchunk.reader.staged.bytes",
		metric.WithDescription("Encoded bytes read from sources into the input stage"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("failed to create staged.bytes counter: %w", err)
	}

	t.overruns, err = meter.Int64Counter("colchunk.reader.budget.overruns",
		metric.WithDescription("Number of row groups read although they exceed a budget on their own"))
	if err != nil {
		return nil, fmt.Errorf("failed to create budget.overruns counter: %w", err)
	}

	return t, nil
}

func (t *telemetry) chunk(ctx context.Context, rows int64) {
	t.chunks.Add(ctx, 1, t.attrs)
	t.rows.Add(ctx, rows, t.attrs)
}

func (t *telemetry) stage(ctx context.Context, bytes int64) {
	t.staged.Add(ctx, bytes, t.attrs)
}

func (t *telemetry) overrun(ctx context.Context, budget string) {
	t.overruns.Add(ctx, 1, metric.WithAttributes(t.engine, attribute.String("budget", budget)))
}

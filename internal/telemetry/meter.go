// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	xglog "github.com/pzpanel/pzpanel/internal/log"
)

// meterName scopes every instrument recorded by the panel.
const meterName = "pzpanel"

// meterInterval is how often cumulative counters are exported.
const meterInterval = time.Minute

// Counter names.
const (
	SettingsWritesCounter   = "pzpanel.settings.writes"
	WorkshopRequestsCounter = "pzpanel.workshop.requests"
)

// RecordSettingsWrite counts one settings save through the global meter provider.
func RecordSettingsWrite(ctx context.Context, dialect, outcome string) {
	add(ctx, SettingsWritesCounter, "Settings saves by outcome",
		attribute.String(SettingsDialectKey, dialect),
		attribute.String("outcome", outcome),
	)
}

// RecordWorkshopRequest counts one Steam request through the global meter provider.
func RecordWorkshopRequest(ctx context.Context, op, status string) {
	add(ctx, WorkshopRequestsCounter, "Steam workshop requests by status",
		attribute.String(WorkshopOpKey, op),
		attribute.String("status", status),
	)
}

// add looks the meter up at call time so a provider installed after startup is used.
func add(ctx context.Context, name, desc string, attrs ...attribute.KeyValue) {
	meter := otel.GetMeterProvider().Meter(meterName)
	counter, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// logExporter writes cumulative sums to the debug log. The trace exporters
// carry spans to the collector; counters stay local next to Prometheus.
type logExporter struct {
	logger zerolog.Logger
}

func newLogExporter() *logExporter {
	return &logExporter{logger: xglog.WithComponent("telemetry")}
}

func (e *logExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (e *logExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (e *logExporter) Export(_ context.Context, rm *metricdata.ResourceMetrics) error {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				e.logger.Debug().
					Str(xglog.FieldEvent, "telemetry.metric").
					Str("metric", m.Name).
					Str("attributes", dp.Attributes.Encoded(attribute.DefaultEncoder())).
					Int64("value", dp.Value).
					Msg("counter")
			}
		}
	}
	return nil
}

func (e *logExporter) ForceFlush(context.Context) error { return nil }

func (e *logExporter) Shutdown(context.Context) error { return nil }

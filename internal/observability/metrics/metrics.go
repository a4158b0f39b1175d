// Package metrics exposes counters for the accounting core's operations.
// All recorder methods are nil-safe so services can treat the instruments
// as optional.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	codeAllocations metric.Int64Counter
	assignments     metric.Int64Counter
	recomputes      metric.Int64Counter
	serviceCharges  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "stackfreight-billing"
	}
	meter := provider.Meter(name)

	codeAllocations, err := meter.Int64Counter("billing_code_allocations_total")
	if err != nil {
		return nil, err
	}
	assignments, err := meter.Int64Counter("billing_rep_assignments_total")
	if err != nil {
		return nil, err
	}
	recomputes, err := meter.Int64Counter("billing_overspace_recomputes_total")
	if err != nil {
		return nil, err
	}
	serviceCharges, err := meter.Int64Counter("billing_service_charges_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		codeAllocations: codeAllocations,
		assignments:     assignments,
		recomputes:      recomputes,
		serviceCharges:  serviceCharges,
	}, nil
}

// RecordCodeAllocation counts account-code allocations; source is "sequence"
// or "fallback".
func (m *Metrics) RecordCodeAllocation(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.codeAllocations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAssignment counts sales-rep assignment outcomes.
func (m *Metrics) RecordAssignment(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.assignments.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRecompute counts over-capacity recompute outcomes.
func (m *Metrics) RecordRecompute(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.recomputes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordServiceCharge counts one-off service charge outcomes.
func (m *Metrics) RecordServiceCharge(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.serviceCharges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":  {},
	"outcome": {},
}

// FilterAttributes drops empty values and unknown keys so label cardinality
// stays bounded.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		if attr.Value.AsString() == "" {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

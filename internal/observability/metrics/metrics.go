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
	Environment      string
}

// Metrics exposes payroll instruments.
type Metrics struct {
	payrollRuns         metric.Int64Counter
	payslipsGenerated   metric.Int64Counter
	chargeApplications  metric.Int64Counter
	payslipsPaid        metric.Int64Counter
	ledgerPostFailures  metric.Int64Counter
	generateDurationSec metric.Float64Histogram
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
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New builds the payroll instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "dairypay"
	}
	meter := provider.Meter(name)

	payrollRuns, err := meter.Int64Counter("dairypay_payroll_runs_total")
	if err != nil {
		return nil, err
	}
	payslipsGenerated, err := meter.Int64Counter("dairypay_payslips_generated_total")
	if err != nil {
		return nil, err
	}
	chargeApplications, err := meter.Int64Counter("dairypay_charge_applications_total")
	if err != nil {
		return nil, err
	}
	payslipsPaid, err := meter.Int64Counter("dairypay_payslips_paid_total")
	if err != nil {
		return nil, err
	}
	ledgerPostFailures, err := meter.Int64Counter("dairypay_ledger_post_failures_total")
	if err != nil {
		return nil, err
	}
	generateDuration, err := meter.Float64Histogram("dairypay_payroll_generate_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		payrollRuns:         payrollRuns,
		payslipsGenerated:   payslipsGenerated,
		chargeApplications:  chargeApplications,
		payslipsPaid:        payslipsPaid,
		ledgerPostFailures:  ledgerPostFailures,
		generateDurationSec: generateDuration,
	}, nil
}

// RecordPayrollRun counts a finished generation attempt by outcome.
func (m *Metrics) RecordPayrollRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.payrollRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.generateDurationSec.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPayslipsGenerated(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.payslipsGenerated.Add(ctx, int64(count))
}

func (m *Metrics) RecordChargeApplication(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("kind", strings.TrimSpace(kind)))
	m.chargeApplications.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPayslipsPaid(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.payslipsPaid.Add(ctx, int64(count))
}

func (m *Metrics) RecordLedgerPostFailure(ctx context.Context, sourceType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source_type", strings.TrimSpace(sourceType)))
	m.ledgerPostFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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
	"status":      {},
	"kind":        {},
	"source_type": {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips labels that would blow up cardinality (ids, names).
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

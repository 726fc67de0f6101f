package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

var ErrUnknownMetricsExporter = errors.New("[observability] unknown metrics exporter")

type MetricsExporter string

const (
	NoneExporter       MetricsExporter = "none"
	StdOutExporter     MetricsExporter = "stdout"
	PrometheusExporter MetricsExporter = "prometheus"
)

func ParseMetricsExporter(exporter string) (MetricsExporter, error) {
	switch e := MetricsExporter(strings.ToLower(strings.TrimSpace(exporter))); e {
	case "", NoneExporter:
		return NoneExporter, nil
	case StdOutExporter, PrometheusExporter:
		return e, nil
	default:
	}
	return NoneExporter, fmt.Errorf("%w: %q", ErrUnknownMetricsExporter, exporter)
}

// Metrics is an installed global meter provider. Handler is only set for
// the prometheus exporter and serves the scrape endpoint.
type Metrics struct {
	Exporter MetricsExporter
	Handler  http.Handler
	Shutdown func(ctx context.Context) error
}

func nopShutdown(context.Context) error { return nil }

// InitMetrics installs the global meter provider of the exporter. The
// none exporter keeps the otel no-op provider.
func InitMetrics(exporter MetricsExporter, interval time.Duration, opts ...stdoutmetric.Option) (*Metrics, error) {
	m := &Metrics{Exporter: exporter, Shutdown: nopShutdown}
	var err error
	switch exporter {
	case NoneExporter:
	case StdOutExporter:
		m.Shutdown, err = newConsoleMetricsExporter(interval, interval, opts...)
	case PrometheusExporter:
		m.Shutdown, m.Handler, err = newPrometheusMetricsExporter()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMetricsExporter, exporter)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
// Every call owns a registry, so repeated calls never collide.
func newPrometheusMetricsExporter() (func(ctx context.Context) error, http.Handler, error) {
	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	callback := mp.Shutdown
	otel.SetMeterProvider(mp)
	return callback, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

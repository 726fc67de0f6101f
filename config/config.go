package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xbst/observability"
	"github.com/benz9527/xbst/xlog"
)

var (
	ErrConfigInvalidLogLevel        = errors.New("[config] invalid logging level")
	ErrConfigInvalidLogFormat       = errors.New("[config] invalid logging format")
	ErrConfigInvalidMetricsExporter = errors.New("[config] invalid metrics exporter")
	ErrConfigInvalidMetricsAddr     = errors.New("[config] metrics address is required by the prometheus exporter")
	ErrConfigInvalidMetricsInterval = errors.New("[config] metrics interval must be positive")
)

const (
	DefaultEngineStepwise  = true
	DefaultRenderColor     = true
	DefaultLoggingLevel    = "warn"
	DefaultLoggingFormat   = "plain"
	DefaultMetricsExporter = "none"
	DefaultMetricsAddr     = "127.0.0.1:9464"
	DefaultMetricsInterval = 10 * time.Second
)

// Config is the effective configuration of the xbst console.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type EngineConfig struct {
	// Stepwise starts new trees in traced, one step per tick, mode.
	Stepwise bool `mapstructure:"stepwise" yaml:"stepwise"`
}

type RenderConfig struct {
	Color bool `mapstructure:"color" yaml:"color"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Exporter string        `mapstructure:"exporter" yaml:"exporter"`
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

func Default() Config {
	return Config{
		Engine:  EngineConfig{Stepwise: DefaultEngineStepwise},
		Render:  RenderConfig{Color: DefaultRenderColor},
		Logging: LoggingConfig{Level: DefaultLoggingLevel, Format: DefaultLoggingFormat},
		Metrics: MetricsConfig{
			Exporter: DefaultMetricsExporter,
			Addr:     DefaultMetricsAddr,
			Interval: DefaultMetricsInterval,
		},
	}
}

func validLogLevel(level string) bool {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case xlog.LogLevelDebug.String(), xlog.LogLevelInfo.String(),
		xlog.LogLevelWarn.String(), xlog.LogLevelError.String():
		return true
	default:
	}
	return false
}

// Validate reports every invalid field at once.
func (cfg Config) Validate() error {
	var merr error
	if !validLogLevel(cfg.Logging.Level) {
		merr = multierr.Append(merr, fmt.Errorf("%w: %q", ErrConfigInvalidLogLevel, cfg.Logging.Level))
	}
	if _, ok := xlog.ParseLogEncoder(cfg.Logging.Format); !ok {
		merr = multierr.Append(merr, fmt.Errorf("%w: %q", ErrConfigInvalidLogFormat, cfg.Logging.Format))
	}
	exporter, err := observability.ParseMetricsExporter(cfg.Metrics.Exporter)
	if err != nil {
		merr = multierr.Append(merr, fmt.Errorf("%w: %q", ErrConfigInvalidMetricsExporter, cfg.Metrics.Exporter))
	}
	if exporter == observability.PrometheusExporter && len(strings.TrimSpace(cfg.Metrics.Addr)) == 0 {
		merr = multierr.Append(merr, ErrConfigInvalidMetricsAddr)
	}
	if exporter == observability.StdOutExporter && cfg.Metrics.Interval <= 0 {
		merr = multierr.Append(merr, fmt.Errorf("%w: %s", ErrConfigInvalidMetricsInterval, cfg.Metrics.Interval))
	}
	return merr
}

// LoggerOptions maps the logging section onto the xlog options.
func (cfg Config) LoggerOptions() []xlog.XLoggerOption {
	enc, ok := xlog.ParseLogEncoder(cfg.Logging.Format)
	if !ok {
		enc = xlog.PlainText
	}
	return []xlog.XLoggerOption{
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.Logging.Level)),
		xlog.WithXLoggerEncoder(enc),
	}
}

// Dump writes the configuration as YAML.
func (cfg Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

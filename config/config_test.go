package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// replaceConfig swaps the file in one rename, so the watcher never reads
// a truncated file.
func replaceConfig(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	writeConfig(t, tmp, content)
	require.NoError(t, os.Rename(tmp, path))
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeConfig(t, path, "")

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), l.Config())
	assert.Equal(t, path, l.File())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xbst.yaml")
	writeConfig(t, path, `
engine:
  stepwise: false
render:
  color: false
logging:
  level: info
  format: json
metrics:
  exporter: prometheus
  addr: ":9000"
  interval: 3s
`)
	l, err := Load(path)
	require.NoError(t, err)
	cfg := l.Config()
	assert.False(t, cfg.Engine.Stepwise)
	assert.False(t, cfg.Render.Color)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "prometheus", cfg.Metrics.Exporter)
	assert.Equal(t, ":9000", cfg.Metrics.Addr)
	assert.Equal(t, 3*time.Second, cfg.Metrics.Interval)
	assert.Len(t, cfg.LoggerOptions(), 2)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xbst.yaml")
	writeConfig(t, path, "engine:\n  stepwise: true\n")
	t.Setenv("XBST_ENGINE_STEPWISE", "false")
	t.Setenv("XBST_LOGGING_LEVEL", "error")

	l, err := Load(path)
	require.NoError(t, err)
	assert.False(t, l.Config().Engine.Stepwise)
	assert.Equal(t, "error", l.Config().Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xbst.yaml")
	writeConfig(t, path, `
logging:
  level: loud
  format: xml
metrics:
  exporter: otlp
`)
	_, err := Load(path)
	require.ErrorIs(t, err, ErrConfigInvalidLogLevel)
	require.ErrorIs(t, err, ErrConfigInvalidLogFormat)
	require.ErrorIs(t, err, ErrConfigInvalidMetricsExporter)
}

func TestValidate(t *testing.T) {
	testcases := []struct {
		name   string
		mutate func(cfg *Config)
		err    error
	}{
		{"default", func(cfg *Config) {}, nil},
		{"prometheus without addr", func(cfg *Config) {
			cfg.Metrics.Exporter, cfg.Metrics.Addr = "prometheus", " "
		}, ErrConfigInvalidMetricsAddr},
		{"stdout without interval", func(cfg *Config) {
			cfg.Metrics.Exporter, cfg.Metrics.Interval = "stdout", 0
		}, ErrConfigInvalidMetricsInterval},
		{"none ignores interval", func(cfg *Config) {
			cfg.Metrics.Interval = -time.Second
		}, nil},
		{"upper case level", func(cfg *Config) {
			cfg.Logging.Level = "DEBUG"
		}, nil},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDump(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Default().Dump(buf))
	require.Contains(t, buf.String(), "interval: 10s")

	var dumped map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &dumped))
	require.Equal(t, true, dumped["engine"]["stepwise"])
	require.Equal(t, "none", dumped["metrics"]["exporter"])
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xbst.yaml")
	writeConfig(t, path, "engine:\n  stepwise: true\n")
	l, err := Load(path)
	require.NoError(t, err)

	noFile, err := Load("")
	require.NoError(t, err)
	if noFile.File() == "" {
		require.False(t, noFile.Watch(func(Config, error) {}))
	}

	type change struct {
		cfg Config
		err error
	}
	changes := make(chan change, 16)
	require.True(t, l.Watch(func(cfg Config, err error) {
		changes <- change{cfg, err}
	}))

	replaceConfig(t, path, "engine:\n  stepwise: false\n")
	var got change
	require.Eventually(t, func() bool {
		select {
		case got = <-changes:
			return got.err == nil && !got.cfg.Engine.Stepwise
		default:
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	require.False(t, l.Config().Engine.Stepwise)

	replaceConfig(t, path, "logging:\n  level: loud\n")
	require.Eventually(t, func() bool {
		select {
		case got = <-changes:
			return got.err != nil
		default:
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	require.ErrorIs(t, got.err, ErrConfigInvalidLogLevel)
	require.False(t, l.Config().Engine.Stepwise, "rejected reload keeps the previous config")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	configName      = ".xbst"
	configType      = "yaml"
	envPrefix       = "XBST"
	envKeySeparator = "_"
)

// Loader owns the viper instance of one configuration source and keeps
// the latest valid configuration.
type Loader struct {
	lock sync.RWMutex
	v    *viper.Viper
	cfg  Config
	file string
}

// Load reads the configuration from file, env vars and defaults.
// If configPath is empty, .xbst.yaml is searched in CWD and $HOME, and a
// missing file is not an error.
func Load(configPath string) (*Loader, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, cfg: cfg, file: v.ConfigFileUsed()}, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("engine.stepwise", DefaultEngineStepwise)
	v.SetDefault("render.color", DefaultRenderColor)
	v.SetDefault("logging.level", DefaultLoggingLevel)
	v.SetDefault("logging.format", DefaultLoggingFormat)
	v.SetDefault("metrics.exporter", DefaultMetricsExporter)
	v.SetDefault("metrics.addr", DefaultMetricsAddr)
	v.SetDefault("metrics.interval", DefaultMetricsInterval)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) Config() Config {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.cfg
}

// File is the config file in use, empty when only defaults and env vars apply.
func (l *Loader) File() string {
	return l.file
}

// Watch reloads the file on every write. onChange runs on the watcher
// goroutine, it receives the new configuration or the reason it was
// rejected. A rejected reload keeps the previous configuration.
func (l *Loader) Watch(onChange func(cfg Config, err error)) bool {
	if l.file == "" || onChange == nil {
		return false
	}
	l.v.OnConfigChange(func(evt fsnotify.Event) {
		if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(l.v)
		if err != nil {
			onChange(l.Config(), err)
			return
		}
		l.lock.Lock()
		l.cfg = cfg
		l.lock.Unlock()
		onChange(cfg, nil)
	})
	l.v.WatchConfig()
	return true
}

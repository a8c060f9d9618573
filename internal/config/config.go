// Package config loads service settings from flags, environment variables and
// an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"benefit-estimator/internal/session"
)

// Setting keys. Each is also read from the upper-case environment variable
// with dots replaced by underscores.
const (
	KeyPort             = "port"
	KeyLogLevel         = "log_level"
	KeyStoreBackend     = "store_backend"
	KeyBadgerPath       = "badger_path"
	KeySessionTTL       = "session_ttl"
	KeyTrendRegistryURL = "trend_registry_url"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

type Config struct {
	Port             string
	LogLevel         string
	StoreBackend     string
	BadgerPath       string
	SessionTTL       time.Duration
	TrendRegistryURL string
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyStoreBackend, BackendMemory)
	v.SetDefault(KeyBadgerPath, "data/sessions")
	v.SetDefault(KeySessionTTL, session.DefaultTTL)
	v.SetDefault(KeyTrendRegistryURL, "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and returns the validated settings.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Port:             v.GetString(KeyPort),
		LogLevel:         v.GetString(KeyLogLevel),
		StoreBackend:     strings.ToLower(v.GetString(KeyStoreBackend)),
		BadgerPath:       v.GetString(KeyBadgerPath),
		SessionTTL:       v.GetDuration(KeySessionTTL),
		TrendRegistryURL: strings.TrimRight(v.GetString(KeyTrendRegistryURL), "/"),
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendBadger:
		if cfg.BadgerPath == "" {
			return Config{}, fmt.Errorf("%s is required for the badger backend", KeyBadgerPath)
		}
	default:
		return Config{}, fmt.Errorf("unknown %s %q", KeyStoreBackend, cfg.StoreBackend)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeySessionTTL, cfg.SessionTTL)
	}
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("%s must not be empty", KeyPort)
	}
	return cfg, nil
}

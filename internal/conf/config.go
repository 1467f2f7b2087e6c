// config.go: Settings for the voice detection service, loaded with viper.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/callguard/internal/logger"
)

// APIConfig holds HTTP server settings
type APIConfig struct {
	Host            string          `mapstructure:"host" yaml:"host"`
	Port            int             `mapstructure:"port" yaml:"port"`
	Key             string          `mapstructure:"key" yaml:"key"` // required x-api-key value
	ReadTimeout     time.Duration   `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration   `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	AnalysisTimeout time.Duration   `mapstructure:"analysis_timeout" yaml:"analysis_timeout"` // deadline wrapped around one pipeline run
	BodyLimit       string          `mapstructure:"body_limit" yaml:"body_limit"`             // echo BodyLimit syntax, e.g. "25M"
	AllowedOrigins  []string        `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedFormats  []string        `mapstructure:"allowed_formats" yaml:"allowed_formats"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig holds per-client request rate limits
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// AudioConfig holds decoder settings
type AudioConfig struct {
	SampleRate  int           `mapstructure:"sample_rate" yaml:"sample_rate"`   // analysis rate, input is resampled to it
	MaxDuration time.Duration `mapstructure:"max_duration" yaml:"max_duration"` // longer clips are rejected
}

// AnalysisConfig holds feature extraction and robustness settings
type AnalysisConfig struct {
	ChunkDuration    float64          `mapstructure:"chunk_duration" yaml:"chunk_duration"`
	MinChunkDuration float64          `mapstructure:"min_chunk_duration" yaml:"min_chunk_duration"`
	SilenceTopDB     float64          `mapstructure:"silence_top_db" yaml:"silence_top_db"`
	Robustness       RobustnessConfig `mapstructure:"robustness" yaml:"robustness"`
}

// RobustnessConfig controls the degradation applied in robustness mode
type RobustnessConfig struct {
	SNRDB         float64 `mapstructure:"snr_db" yaml:"snr_db"`
	Seed          uint64  `mapstructure:"seed" yaml:"seed"`                     // 0 draws a random seed per request
	TelephoneBand bool    `mapstructure:"telephone_band" yaml:"telephone_band"` // also band-limit to 300-3400 Hz
}

// CacheConfig controls the feature cache
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// DatastoreConfig controls the analysis history database
type DatastoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// MQTTConfig controls verdict publishing
type MQTTConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Broker     string `mapstructure:"broker" yaml:"broker"`
	ClientID   string `mapstructure:"client_id" yaml:"client_id"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	Topic      string `mapstructure:"topic" yaml:"topic"`
	Retain     bool   `mapstructure:"retain" yaml:"retain"`
	PublishAll bool   `mapstructure:"publish_all" yaml:"publish_all"` // publish every verdict, not only fraud
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// SentryConfig controls error telemetry
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// Settings contains all configuration options for the service.
type Settings struct {
	Debug     bool                 `mapstructure:"debug" yaml:"debug"`
	Logging   logger.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	API       APIConfig            `mapstructure:"api" yaml:"api"`
	Audio     AudioConfig          `mapstructure:"audio" yaml:"audio"`
	Analysis  AnalysisConfig       `mapstructure:"analysis" yaml:"analysis"`
	Cache     CacheConfig          `mapstructure:"cache" yaml:"cache"`
	Datastore DatastoreConfig      `mapstructure:"datastore" yaml:"datastore"`
	MQTT      MQTTConfig           `mapstructure:"mqtt" yaml:"mqtt"`
	Metrics   MetricsConfig        `mapstructure:"metrics" yaml:"metrics"`
	Sentry    SentryConfig         `mapstructure:"sentry" yaml:"sentry"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads config.yaml from the default search paths (or the file set with
// viper.SetConfigFile), applies defaults and environment overrides, validates
// the result and stores it as the current settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings, err := loadFrom(viper.GetViper())
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

func loadFrom(v *viper.Viper) (*Settings, error) {
	if err := initViper(v); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper sets defaults, binds environment variables and reads the config file.
// A missing config.yaml in the search paths is not an error; defaults and
// environment apply. A file set with SetConfigFile must exist.
func initViper(v *viper.Viper) error {
	// SetConfigName clears an explicit config file, so search paths are only
	// registered when none was given.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// GetDefaultConfigPaths returns the directories searched for config.yaml, in order.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "callguard"))
	}
	return append(paths, "/etc/callguard")
}

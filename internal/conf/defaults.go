// defaults.go: default configuration values
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults that other packages reference directly
const (
	DefaultSampleRate       = 16000
	DefaultChunkDuration    = 1.5
	DefaultMinChunkDuration = 0.5
	DefaultSilenceTopDB     = 25.0
	DefaultRobustnessSNRDB  = 30.0
)

// setDefaultConfig sets default values for every configuration key
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/callguard.log")
	v.SetDefault("logging.file_output.max_size", 100)
	v.SetDefault("logging.file_output.max_age", 30)
	v.SetDefault("logging.file_output.max_rotated_files", 10)
	v.SetDefault("logging.file_output.compress", false)
	v.SetDefault("logging.file_output.level", "info")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5000)
	v.SetDefault("api.key", "")
	v.SetDefault("api.read_timeout", 30*time.Second)
	v.SetDefault("api.write_timeout", 60*time.Second)
	v.SetDefault("api.idle_timeout", 120*time.Second)
	v.SetDefault("api.analysis_timeout", 45*time.Second)
	v.SetDefault("api.body_limit", "25M")
	v.SetDefault("api.allowed_origins", []string{"*"})
	v.SetDefault("api.allowed_formats", []string{"wav", "mp3", "flac"})
	v.SetDefault("api.rate_limit.enabled", true)
	v.SetDefault("api.rate_limit.requests_per_second", 5.0)
	v.SetDefault("api.rate_limit.burst", 10)

	v.SetDefault("audio.sample_rate", DefaultSampleRate)
	v.SetDefault("audio.max_duration", 5*time.Minute)

	v.SetDefault("analysis.chunk_duration", DefaultChunkDuration)
	v.SetDefault("analysis.min_chunk_duration", DefaultMinChunkDuration)
	v.SetDefault("analysis.silence_top_db", DefaultSilenceTopDB)
	v.SetDefault("analysis.robustness.snr_db", DefaultRobustnessSNRDB)
	v.SetDefault("analysis.robustness.seed", 0)
	v.SetDefault("analysis.robustness.telephone_band", false)

	v.SetDefault("cache.enabled", true)

	v.SetDefault("datastore.enabled", false)
	v.SetDefault("datastore.path", "data/callguard.db")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "callguard")
	v.SetDefault("mqtt.topic", "callguard/verdicts")
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.publish_all", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}

// DefaultSettings returns the settings produced by defaults alone.
func DefaultSettings() (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

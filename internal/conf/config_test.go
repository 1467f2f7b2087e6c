package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	t.Parallel()

	settings, err := DefaultSettings()
	require.NoError(t, err)

	assert.Equal(t, 5000, settings.API.Port)
	assert.Equal(t, "25M", settings.API.BodyLimit)
	assert.Equal(t, 45*time.Second, settings.API.AnalysisTimeout)
	assert.ElementsMatch(t, []string{"wav", "mp3", "flac"}, settings.API.AllowedFormats)
	assert.Equal(t, DefaultSampleRate, settings.Audio.SampleRate)
	assert.InDelta(t, DefaultChunkDuration, settings.Analysis.ChunkDuration, 1e-9)
	assert.InDelta(t, DefaultRobustnessSNRDB, settings.Analysis.Robustness.SNRDB, 1e-9)
	assert.True(t, settings.Cache.Enabled)
	assert.False(t, settings.Datastore.Enabled)
	assert.False(t, settings.MQTT.Enabled)
	assert.Equal(t, "/metrics", settings.Metrics.Path)

	require.NoError(t, ValidateSettings(settings))
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "callguard-prod.yaml")
	content := `
api:
  port: 8080
  key: file-key
analysis:
  chunk_duration: 2.0
datastore:
  enabled: true
  path: /tmp/history.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)

	settings, err := loadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, path, v.ConfigFileUsed())
	assert.Equal(t, 8080, settings.API.Port)
	assert.Equal(t, "file-key", settings.API.Key)
	assert.InDelta(t, 2.0, settings.Analysis.ChunkDuration, 1e-9)
	assert.True(t, settings.Datastore.Enabled)
	assert.Equal(t, "/tmp/history.db", settings.Datastore.Path)
	// untouched keys keep their defaults
	assert.Equal(t, "25M", settings.API.BodyLimit)
}

func TestLoadFromMissingConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := loadFrom(v)
	require.Error(t, err)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CALLGUARD_API_KEY", "env-key")
	t.Setenv("CALLGUARD_PORT", "9090")
	t.Setenv("CALLGUARD_CACHE_ENABLED", "false")

	settings, err := loadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "env-key", settings.API.Key)
	assert.Equal(t, 9090, settings.API.Port)
	assert.False(t, settings.Cache.Enabled)
}

func TestLoadFromLegacyAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "legacy-key")

	settings, err := loadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", settings.API.Key)
}

func TestLoadFromEnvironmentEphemeralPort(t *testing.T) {
	t.Setenv("CALLGUARD_PORT", "0")

	settings, err := loadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 0, settings.API.Port)
}

func TestLoadFromInvalidEnvironment(t *testing.T) {
	t.Setenv("CALLGUARD_PORT", "not-a-port")

	_, err := loadFrom(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CALLGUARD_PORT")
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults are valid", func(*Settings) {}, ""},
		{"ephemeral port", func(s *Settings) { s.API.Port = 0 }, ""},
		{"port out of range", func(s *Settings) { s.API.Port = 70000 }, "port 70000 out of range"},
		{"negative port", func(s *Settings) { s.API.Port = -1 }, "port -1 out of range"},
		{"unsupported format", func(s *Settings) { s.API.AllowedFormats = []string{"ogg"} }, `allowed format "ogg"`},
		{"zero rate limit", func(s *Settings) { s.API.RateLimit.RequestsPerSecond = 0 }, "requests_per_second"},
		{"sample rate too low", func(s *Settings) { s.Audio.SampleRate = 4000 }, "sample_rate 4000"},
		{"min chunk above chunk", func(s *Settings) { s.Analysis.MinChunkDuration = 3 }, "min_chunk_duration"},
		{"negative snr", func(s *Settings) { s.Analysis.Robustness.SNRDB = -1 }, "snr_db"},
		{"datastore without path", func(s *Settings) {
			s.Datastore.Enabled = true
			s.Datastore.Path = ""
		}, "datastore: path is required"},
		{"mqtt bad broker", func(s *Settings) {
			s.MQTT.Enabled = true
			s.MQTT.Broker = "localhost"
		}, "mqtt: broker"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry: dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings, err := DefaultSettings()
			require.NoError(t, err)
			tt.mutate(settings)

			err = ValidateSettings(settings)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	settings, err := DefaultSettings()
	require.NoError(t, err)
	settings.API.Port = 65536
	settings.Audio.SampleRate = 1

	err = ValidateSettings(settings)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestValidateForServe(t *testing.T) {
	t.Parallel()

	settings, err := DefaultSettings()
	require.NoError(t, err)

	require.Error(t, ValidateForServe(settings))

	settings.API.Key = "secret"
	assert.NoError(t, ValidateForServe(settings))
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path, false))
	require.Error(t, WriteDefaultConfig(path, false), "existing file must not be overwritten")

	v := viper.New()
	v.SetConfigFile(path)
	settings, err := loadFrom(v)
	require.NoError(t, err)

	defaults, err := DefaultSettings()
	require.NoError(t, err)
	assert.Equal(t, defaults.API, settings.API)
	assert.Equal(t, defaults.Analysis, settings.Analysis)

	// no temporary files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// validate.go: settings validation
package conf

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// supportedFormats are the containers the audio decoder understands
var supportedFormats = []string{"wav", "mp3", "flac"}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAPISettings(&settings.API); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateAnalysisSettings(&settings.Analysis); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Datastore.Enabled && settings.Datastore.Path == "" {
		ve.Errors = append(ve.Errors, "datastore: path is required when the datastore is enabled")
	}

	if err := validateMQTTSettings(&settings.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		ve.Errors = append(ve.Errors, "sentry: dsn is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// ValidateForServe checks the settings that only the HTTP server needs.
// A missing API key is fatal at startup.
func ValidateForServe(settings *Settings) error {
	if strings.TrimSpace(settings.API.Key) == "" {
		return ValidationError{Errors: []string{"api: key is required (set api.key or CALLGUARD_API_KEY)"}}
	}
	return nil
}

func validateAPISettings(settings *APIConfig) error {
	var errs []string

	if settings.Port < 0 || settings.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port %d out of range", settings.Port))
	}

	if settings.AnalysisTimeout < 0 {
		errs = append(errs, "analysis_timeout must not be negative")
	}

	for _, format := range settings.AllowedFormats {
		if !slices.Contains(supportedFormats, strings.ToLower(format)) {
			errs = append(errs, fmt.Sprintf("allowed format %q is not supported (supported: %s)", format, strings.Join(supportedFormats, ", ")))
		}
	}

	if settings.RateLimit.Enabled {
		if settings.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, "rate_limit.requests_per_second must be positive")
		}
		if settings.RateLimit.Burst < 1 {
			errs = append(errs, "rate_limit.burst must be at least 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("api: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAudioSettings(settings *AudioConfig) error {
	if settings.SampleRate < 8000 || settings.SampleRate > 48000 {
		return fmt.Errorf("audio: sample_rate %d must be between 8000 and 48000", settings.SampleRate)
	}
	if settings.MaxDuration <= 0 {
		return fmt.Errorf("audio: max_duration must be positive")
	}
	return nil
}

func validateAnalysisSettings(settings *AnalysisConfig) error {
	var errs []string

	if settings.ChunkDuration <= 0 {
		errs = append(errs, "chunk_duration must be positive")
	}
	if settings.MinChunkDuration < 0 || settings.MinChunkDuration > settings.ChunkDuration {
		errs = append(errs, "min_chunk_duration must be between 0 and chunk_duration")
	}
	if settings.SilenceTopDB <= 0 {
		errs = append(errs, "silence_top_db must be positive")
	}
	if settings.Robustness.SNRDB <= 0 {
		errs = append(errs, "robustness.snr_db must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("analysis: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMQTTSettings(settings *MQTTConfig) error {
	if !settings.Enabled {
		return nil
	}

	var errs []string
	if settings.Broker == "" {
		errs = append(errs, "broker is required")
	} else if u, err := url.Parse(settings.Broker); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("broker %q must be a URL such as tcp://host:1883", settings.Broker))
	}
	if settings.Topic == "" {
		errs = append(errs, "topic is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("mqtt: %s", strings.Join(errs, "; "))
	}
	return nil
}

// env.go: environment variable overrides
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "CALLGUARD_DEBUG", validateEnvBool},
		{"api.host", "CALLGUARD_HOST", nil},
		{"api.port", "CALLGUARD_PORT", validateEnvPort},
		{"api.key", "CALLGUARD_API_KEY", nil},
		{"logging.default_level", "CALLGUARD_LOG_LEVEL", validateEnvLogLevel},
		{"cache.enabled", "CALLGUARD_CACHE_ENABLED", validateEnvBool},
		{"datastore.enabled", "CALLGUARD_DATASTORE_ENABLED", validateEnvBool},
		{"datastore.path", "CALLGUARD_DATASTORE_PATH", nil},
		{"mqtt.enabled", "CALLGUARD_MQTT_ENABLED", validateEnvBool},
		{"mqtt.broker", "CALLGUARD_MQTT_BROKER", nil},
		{"mqtt.username", "CALLGUARD_MQTT_USERNAME", nil},
		{"mqtt.password", "CALLGUARD_MQTT_PASSWORD", nil},
		{"sentry.enabled", "CALLGUARD_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "CALLGUARD_SENTRY_DSN", nil},
		// API_KEY is accepted for older deployments that set it in .env
		{"api.key", "API_KEY", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	keys := make(map[string][]string)
	var order []string
	var warnings []string

	for _, binding := range getEnvBindings() {
		if _, seen := keys[binding.ConfigKey]; !seen {
			order = append(order, binding.ConfigKey)
		}
		keys[binding.ConfigKey] = append(keys[binding.ConfigKey], binding.EnvVar)

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, envValue, err))
			}
		}
	}

	// viper.BindEnv takes all variable names for a key in one call; the first set one wins
	for _, key := range order {
		args := append([]string{key}, keys[key]...)
		if err := v.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", key, err))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("must be a port number between 0 and 65535")
	}
	return nil
}

func validateEnvLogLevel(value string) error {
	switch strings.ToLower(value) {
	case "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("must be one of trace, debug, info, warn, error")
	}
}

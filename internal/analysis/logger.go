package analysis

import "github.com/tphakala/callguard/internal/logger"

// GetLogger returns the analysis module logger. It is resolved on every call
// so that loggers installed after package init take effect.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}

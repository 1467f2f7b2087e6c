package jobqueue

import "github.com/tphakala/callguard/internal/logger"

// GetLogger returns the jobqueue module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis.jobqueue")
}

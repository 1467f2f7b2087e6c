package observability

import (
	"fmt"

	"github.com/tphakala/callguard/internal/logger"
)

// GetLogger returns the logger for the metrics endpoint.
func GetLogger() logger.Logger {
	return logger.Global().Module("metrics")
}

// promLogAdapter routes promhttp errors into the structured logger.
type promLogAdapter struct{}

func (promLogAdapter) Println(v ...any) {
	GetLogger().Error("metrics handler error", logger.String("detail", fmt.Sprint(v...)))
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// HSTSMaxAge is one year in seconds.
	HSTSMaxAge = 31536000

	// HeaderAPIKey carries the shared API key.
	HeaderAPIKey = "X-Api-Key"

	// corsMaxAge lets browsers cache preflight results for ten minutes
	corsMaxAge = 600
)

// SecurityConfig holds configuration for the CORS and header middleware.
// The API serves JSON only, so the policy forbids every content source.
type SecurityConfig struct {
	AllowedOrigins        []string
	HSTSMaxAge            int
	ContentSecurityPolicy string
	ReferrerPolicy        string
}

// DefaultSecurityConfig returns a SecurityConfig that accepts any origin
// without credentials.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowedOrigins:        []string{"*"},
		HSTSMaxAge:            HSTSMaxAge,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}
}

// NewCORS allows browser clients to submit audio with the API key header.
// Credentials are never allowed since authentication is header based.
func NewCORS(config SecurityConfig) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			HeaderAPIKey,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID, "Retry-After"},
		MaxAge:        corsMaxAge,
	})
}

// NewSecureHeaders sets the response hardening headers.
func NewSecureHeaders(config SecurityConfig) echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            config.HSTSMaxAge,
		ContentSecurityPolicy: config.ContentSecurityPolicy,
		ReferrerPolicy:        config.ReferrerPolicy,
	})
}

// NewBodyLimit rejects payloads above limit ("25M", "512K") with 413.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}

package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// invalidKeyResponse is the body returned for a missing or wrong key.
var invalidKeyResponse = map[string]string{
	"status":  "error",
	"message": "Invalid API key",
}

// NewAPIKeyAuth rejects requests whose X-Api-Key header does not match key.
// Both values are hashed first so the comparison time does not depend on
// their lengths.
func NewAPIKeyAuth(key string) echo.MiddlewareFunc {
	want := sha256.Sum256([]byte(key))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(HeaderAPIKey)
			got := sha256.Sum256([]byte(provided))
			if key == "" || provided == "" || subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				return c.JSON(http.StatusUnauthorized, invalidKeyResponse)
			}
			return next(c)
		}
	}
}

package middleware

import (
	"net/http"
	"strings"

	"bnpl-ledger/pkg/address"

	"github.com/labstack/echo/v4"
)

const (
	HeaderCallerID = "Ax-Caller-Id"
	callerKey      = "caller"
)

// CallerMiddleware reads the acting account from Ax-Caller-Id. Mutating
// requests must carry one; reads may omit it. The header is trusted as sent,
// so it has to be set by an authenticating gateway in front of the service.
func CallerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderCallerID))
			if raw == "" {
				if isMutating(c.Request().Method) {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderCallerID})
				}
				return next(c)
			}
			caller, err := address.Normalize(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderCallerID})
			}
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// Caller returns the normalised caller address, or "" when none was sent.
func Caller(c echo.Context) string {
	s, _ := c.Get(callerKey).(string)
	return s
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

package webserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SkillSecretRequired gates administrative endpoints behind the shared
// x-skill-secret header. Mismatch yields a bare 401 with no detail.
func SkillSecretRequired(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			supplied := c.Request().Header.Get("x-skill-secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			return next(c)
		}
	}
}

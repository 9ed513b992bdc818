package admin

import (
	"crypto/subtle"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/hainu/catalog/internal/config"
)

// realm is sent in the WWW-Authenticate challenge.
const realm = "catalog admin"

// RequireAdmin returns basic-auth middleware that accepts only the
// configured admin user. With no password hash configured every request
// is rejected.
func RequireAdmin(cfg config.AdminConfig) echo.MiddlewareFunc {
	return echomw.BasicAuthWithConfig(echomw.BasicAuthConfig{
		Realm: realm,
		Validator: func(user, password string, c echo.Context) (bool, error) {
			if CheckCredentials(cfg, user, password) {
				return true, nil
			}
			slog.Warn("admin authentication failed",
				slog.String("user", user),
				slog.String("remote_ip", c.RealIP()),
			)
			return false, nil
		},
	})
}

// CheckCredentials compares user in constant time and password against the
// bcrypt hash.
func CheckCredentials(cfg config.AdminConfig, user, password string) bool {
	if cfg.PasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.User)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

package racepub

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// authorize lets the request through when it comes from an admin session or
// carries the configured admin password. Without a configured password
// nothing can be published.
func (a *App) authorize(c echo.Context, password string) error {
	if IsAdmin(c) {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return errConfigMissing("admin password")
	}
	ip := c.RealIP()
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.Config.AdminPassword)) == 1 {
		a.limiter.Reset(ip)
		return nil
	}
	a.limiter.Fail(ip)
	return errUnauthorized()
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.limiter.Check(ip) {
		return errTooManyAttempts()
	}
	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&in); err != nil {
		return errInvalidJSON(err)
	}
	if a.Config.AdminPassword == "" {
		return errConfigMissing("admin password")
	}
	if subtle.ConstantTimeCompare([]byte(in.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.limiter.Fail(ip)
		return errUnauthorized()
	}
	a.limiter.Reset(ip)
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

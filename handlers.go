package racepub

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/labstack/echo/v4"
)

type errorBody struct {
	Error string `json:"error"`
}

func (a *App) handlePublish(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodOptions:
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return c.NoContent(http.StatusNoContent)
	case http.MethodPost:
	default:
		return errMethodNotAllowed()
	}

	ip := c.RealIP()
	if !a.limiter.Check(ip) {
		return errTooManyAttempts()
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	req, err := DecodeRequest(body)
	if err != nil {
		return err
	}
	if a.Config.AdminPassword == "" && !IsAdmin(c) {
		// Request errors come before the missing-password error.
		if _, err := checkRequest(req); err != nil {
			return err
		}
	}
	if err := a.authorize(c, req.Password); err != nil {
		return err
	}

	res, err := a.Publisher.Publish(c.Request().Context(), req)
	a.Index.Invalidate()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (a *App) handleIndex(c echo.Context) error {
	entries, err := a.Index.Entries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, FilterByYear(entries, c.QueryParam("year")))
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// httpErrorHandler renders every error as {"error": message}. The CORS
// headers set by corsMiddleware are already on the response.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := errorStatus(err)
	msg := errorMessage(err)
	var he *echo.HTTPError
	if !goerrors.IsWrapped(err) && errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= 500 {
		a.Logger.Error("server error", "method", c.Request().Method,
			"uri", c.Request().RequestURI, "status", code, "err", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorBody{Error: msg})
}

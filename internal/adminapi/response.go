package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughmon/internal/app"
	"github.com/talkincode/toughmon/internal/monitor"
	"github.com/talkincode/toughmon/internal/snmp"
)

const appContextKey = "appctx"

// ErrorResponse is the body of every non-2xx API reply
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, ErrorResponse{Error: code, Message: message, Details: details})
}

// failWith maps engine errors to HTTP status codes
func failWith(c echo.Context, err error) error {
	var notFound *monitor.NotFoundError
	var invalid *monitor.ValidationError
	var transport *snmp.TransportError
	switch {
	case errors.As(err, &notFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.As(err, &invalid):
		return fail(c, http.StatusBadRequest, "INVALID_PARAMETER", err.Error(), nil)
	case errors.As(err, &transport):
		return fail(c, http.StatusBadGateway, "SNMP_ERROR", "Device did not answer the SNMP request", err.Error())
	case errors.Is(err, monitor.ErrSessionLimit):
		return fail(c, http.StatusServiceUnavailable, "SESSION_LIMIT", "All sampling workers are busy, retry later", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fail(c, http.StatusServiceUnavailable, "CANCELLED", "Request cancelled", err.Error())
	default:
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error", err.Error())
	}
}

// WithAppContext makes appCtx available to handlers through GetAppContext
func WithAppContext(appCtx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, appCtx)
			return next(c)
		}
	}
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appContextKey).(app.AppContext)
}

func parseIntParam(c echo.Context, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}

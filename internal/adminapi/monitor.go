package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughmon/internal/app"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/pkg/metrics"
	"go.uber.org/zap"
)

// RegisterRoutes mounts the monitoring API on e under /api/v1 and the
// prometheus endpoint on /metrics.
func RegisterRoutes(e *echo.Echo, appCtx app.AppContext) {
	e.JSONSerializer = JSONSerializer{}
	g := e.Group("/api/v1", WithAppContext(appCtx))
	g.GET("/routers/:hostname/interfaces/:if_index/octets/:seconds", GetOctets)
	g.POST("/routers/:hostname/interfaces/:if_index/octets/:seconds", StartOctets)
	g.DELETE("/routers/:hostname/interfaces/:if_index/octets/:seconds", StopOctets)
	g.GET("/routers/:hostname/interfaces/:if_index/chart", GetBandwidthChart)
	g.GET("/routers/:hostname/status", GetRouterStatus)
	g.GET("/routers/:hostname/interfaces/:if_index/status", GetLinkState)
	g.POST("/routers/:hostname/interfaces/:if_index/status", StartLinkCapture)
	g.DELETE("/routers/:hostname/interfaces/:if_index/status", StopLinkCapture)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

type linkTarget struct {
	router  *domain.NetRouter
	ifIndex int
}

func resolveRouter(c echo.Context) (*domain.NetRouter, error) {
	return GetAppContext(c).Directory().Resolve(c.Request().Context(), c.Param("hostname"))
}

// resolveLink validates :if_index and looks the router up. A non-nil error
// return means the reply has already been written.
func resolveLink(c echo.Context) (*linkTarget, error) {
	ifIndex, err := parseIntParam(c, "if_index")
	if err != nil || ifIndex < 1 {
		return nil, fail(c, http.StatusBadRequest, "INVALID_IF_INDEX", "Interface index must be a positive integer", nil)
	}
	router, err := resolveRouter(c)
	if err != nil {
		return nil, failWith(c, err)
	}
	return &linkTarget{router: router, ifIndex: ifIndex}, nil
}

func parseSeconds(c echo.Context) (int, bool) {
	seconds, err := parseIntParam(c, "seconds")
	if err != nil || seconds < 1 {
		return 0, false
	}
	return seconds, true
}

// GetOctets returns the stored result of the session on the interface, or
// samples live for :seconds when no session exists.
func GetOctets(c echo.Context) error {
	seconds, valid := parseSeconds(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_SECONDS", "Duration must be >= 1 second", nil)
	}
	target, err := resolveLink(c)
	if target == nil {
		return err
	}
	appCtx := GetAppContext(c)
	host := target.router.IpAdmin

	state, result, err := appCtx.Sessions().Result(host, target.ifIndex)
	if err == nil {
		switch {
		case result != nil:
			return ok(c, result)
		case state.Running:
			state.Host = target.router.Hostname
			return c.JSON(http.StatusAccepted, state)
		default:
			return fail(c, http.StatusBadGateway, "SAMPLING_FAILED", "Sampling session failed", state.Error)
		}
	}

	result, err = appCtx.Sampler().Sample(c.Request().Context(), host, target.ifIndex, seconds)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, result)
}

// StartOctets starts a background sampling session and returns its state
func StartOctets(c echo.Context) error {
	seconds, valid := parseSeconds(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "INVALID_SECONDS", "Duration must be >= 1 second", nil)
	}
	target, err := resolveLink(c)
	if target == nil {
		return err
	}

	state, err := GetAppContext(c).Sessions().Start(target.router.IpAdmin, target.ifIndex, seconds)
	if err != nil {
		return failWith(c, err)
	}
	metrics.Inc("sampling_sessions_started")
	zap.L().Info("octet sampling started",
		zap.String("namespace", "adminapi"),
		zap.String("hostname", target.router.Hostname),
		zap.Int("if_index", target.ifIndex),
		zap.Int("seconds", seconds),
		zap.String("session", state.ID))
	state.Host = target.router.Hostname
	return c.JSON(http.StatusAccepted, state)
}

// StopOctets cancels the session on the interface and drops its data
func StopOctets(c echo.Context) error {
	target, err := resolveLink(c)
	if target == nil {
		return err
	}

	state, err := GetAppContext(c).Sessions().Stop(target.router.IpAdmin, target.ifIndex)
	if err != nil {
		return failWith(c, err)
	}
	state.Host = target.router.Hostname
	return ok(c, state)
}

// GetRouterStatus sends one sysUpTime heartbeat to the router
func GetRouterStatus(c echo.Context) error {
	router, err := resolveRouter(c)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, GetAppContext(c).Liveness().CheckHost(c.Request().Context(), router.IpAdmin))
}

func GetLinkState(c echo.Context) error {
	target, err := resolveLink(c)
	if target == nil {
		return err
	}
	entry, err := GetAppContext(c).Links().GetState(c.Request().Context(), target.router.IpAdmin, target.ifIndex)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, entry)
}

func StartLinkCapture(c echo.Context) error {
	target, err := resolveLink(c)
	if target == nil {
		return err
	}
	entry, err := GetAppContext(c).Links().StartCapture(c.Request().Context(), target.router.IpAdmin, target.ifIndex)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, entry)
}

func StopLinkCapture(c echo.Context) error {
	target, err := resolveLink(c)
	if target == nil {
		return err
	}
	entry, err := GetAppContext(c).Links().StopCapture(c.Request().Context(), target.router.IpAdmin, target.ifIndex)
	if err != nil {
		return failWith(c, err)
	}
	return ok(c, entry)
}

package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talkincode/toughmon/config"
	"github.com/talkincode/toughmon/internal/app"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/monitor"
	"github.com/talkincode/toughmon/internal/snmp"
	"github.com/talkincode/toughmon/internal/snmp/snmptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const routerIP = "192.0.2.1"

type apiFixture struct {
	e   *echo.Echo
	app *app.Application
	tr  *snmptest.Transport
}

func newAPIFixture(t *testing.T, tweaks ...func(*config.AppConfig)) *apiFixture {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.Monitor.SampleInterval = 5 * time.Millisecond
	cfg.Monitor.MaxSampleSeconds = 60
	for _, tweak := range tweaks {
		tweak(cfg)
	}

	db, err := gorm.Open(app.NewSqliteDialector(filepath.Join(t.TempDir(), "api_test.db")),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	a := app.NewApplication(cfg)
	a.OverrideDB(db)
	require.NoError(t, a.MigrateDB(false))
	require.NoError(t, db.Create(&domain.NetRouter{Hostname: "core-1", IpAdmin: routerIP, Status: "enabled"}).Error)

	tr := snmptest.New()
	require.NoError(t, a.InitEngine(tr, clock.New()))
	t.Cleanup(func() {
		_ = a.Release()
	})

	e := echo.New()
	RegisterRoutes(e, a)
	return &apiFixture{e: e, app: a, tr: tr}
}

func (f *apiFixture) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestRouterStatusUp(t *testing.T) {
	f := newAPIFixture(t)
	f.tr.Set(routerIP, snmp.OIDSysUpTime, 12345)

	rec := f.do(http.MethodGet, "/api/v1/routers/core-1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status domain.LivenessStatus
	decode(t, rec, &status)
	assert.Equal(t, domain.LivenessUp, status.State)
	require.NotNil(t, status.UptimeSeconds)
	assert.InDelta(t, 123.45, *status.UptimeSeconds, 1e-9)
}

func TestRouterStatusDownIsNotAnError(t *testing.T) {
	f := newAPIFixture(t)
	f.tr.Fail(routerIP, snmp.OIDSysUpTime, "request timeout")

	rec := f.do(http.MethodGet, "/api/v1/routers/core-1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var status domain.LivenessStatus
	decode(t, rec, &status)
	assert.Equal(t, domain.LivenessDown, status.State)
	assert.Contains(t, status.Error, "request timeout")
	assert.Nil(t, status.LastResponse)
}

func TestUnknownRouterIsNotFound(t *testing.T) {
	f := newAPIFixture(t)

	for _, target := range []string{
		"/api/v1/routers/nope/status",
		"/api/v1/routers/nope/interfaces/1/status",
		"/api/v1/routers/nope/interfaces/1/octets/5",
	} {
		rec := f.do(http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestOctetsRejectsBadParameters(t *testing.T) {
	f := newAPIFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/routers/core-1/interfaces/1/octets/0").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/routers/core-1/interfaces/1/octets/abc").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/routers/core-1/interfaces/x/octets/3").Code)

	rec := f.do(http.MethodPost, "/api/v1/routers/core-1/interfaces/1/octets/61")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "INVALID_PARAMETER", body.Error)
}

func TestOctetsSessionLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	f.tr.Set(routerIP, snmp.IfInOctets(2), 1000)
	f.tr.Set(routerIP, snmp.IfOutOctets(2), 2000)

	rec := f.do(http.MethodPost, "/api/v1/routers/core-1/interfaces/2/octets/3")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var started monitor.SessionState
	decode(t, rec, &started)
	assert.Equal(t, "core-1", started.Host)
	assert.Equal(t, 3, started.Seconds)
	assert.NotEmpty(t, started.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.app.Sessions().Wait(ctx, routerIP, 2))

	rec = f.do(http.MethodGet, "/api/v1/routers/core-1/interfaces/2/octets/3")
	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.OctetMonitorResult
	decode(t, rec, &result)
	assert.Len(t, result.Samples, 3)
	assert.Equal(t, uint32(1000), result.LastInOctets)
	assert.Equal(t, uint32(2000), result.LastOutOctets)

	rec = f.do(http.MethodDelete, "/api/v1/routers/core-1/interfaces/2/octets/3")
	require.Equal(t, http.StatusOK, rec.Code)
	var stopped monitor.SessionState
	decode(t, rec, &stopped)
	assert.False(t, stopped.Running)
	assert.Equal(t, 3, stopped.SamplesCount)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/v1/routers/core-1/interfaces/2/octets/3").Code)
}

func TestOctetsLiveSampleWithoutSession(t *testing.T) {
	f := newAPIFixture(t)
	f.tr.Set(routerIP, snmp.IfInOctets(4), 10)
	f.tr.Set(routerIP, snmp.IfOutOctets(4), 20)

	rec := f.do(http.MethodGet, "/api/v1/routers/core-1/interfaces/4/octets/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.OctetMonitorResult
	decode(t, rec, &result)
	require.Len(t, result.Samples, 2)
	assert.Equal(t, 1, result.Samples[0].T)
	assert.Equal(t, 2, result.Samples[1].T)
}

func TestOctetsTransportFailureIsBadGateway(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/routers/core-1/interfaces/4/octets/2")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLinkCaptureOverAPI(t *testing.T) {
	f := newAPIFixture(t)
	f.tr.Set(routerIP, snmp.IfAdminStatus(7), domain.AdminStatusUp)
	f.tr.Set(routerIP, snmp.IfOperStatus(7), domain.OperStatusUp)

	rec := f.do(http.MethodPost, "/api/v1/routers/core-1/interfaces/7/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry domain.LinkStateEntry
	decode(t, rec, &entry)
	assert.True(t, entry.Active)
	assert.Equal(t, "up", entry.OperStatusText)

	f.tr.Set(routerIP, snmp.IfOperStatus(7), domain.OperStatusDown)
	rec = f.do(http.MethodGet, "/api/v1/routers/core-1/interfaces/7/status")
	require.Equal(t, http.StatusOK, rec.Code)
	entry = domain.LinkStateEntry{}
	decode(t, rec, &entry)
	require.Len(t, entry.Events, 1)
	assert.Equal(t, domain.EventLinkDown, entry.Events[0].Kind)
	assert.NotNil(t, entry.LastChange)

	rec = f.do(http.MethodDelete, "/api/v1/routers/core-1/interfaces/7/status")
	require.Equal(t, http.StatusOK, rec.Code)
	entry = domain.LinkStateEntry{}
	decode(t, rec, &entry)
	assert.False(t, entry.Active)
	assert.Len(t, entry.Events, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.tr.Set(routerIP, snmp.OIDSysUpTime, 1)
	f.app.SweepLiveness()

	rec := f.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "toughmon_routers_up 1"))
}

func TestOctetsBusyPoolIsServiceUnavailable(t *testing.T) {
	f := newAPIFixture(t, func(cfg *config.AppConfig) {
		cfg.Monitor.WorkerPoolSize = 1
		cfg.Monitor.SampleInterval = time.Second
	})
	for _, idx := range []int{1, 2} {
		f.tr.Set(routerIP, snmp.IfInOctets(idx), 0)
		f.tr.Set(routerIP, snmp.IfOutOctets(idx), 0)
	}

	require.Equal(t, http.StatusAccepted, f.do(http.MethodPost, "/api/v1/routers/core-1/interfaces/1/octets/60").Code)

	rec := f.do(http.MethodPost, "/api/v1/routers/core-1/interfaces/2/octets/1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, "SESSION_LIMIT", body.Error)

	require.Equal(t, http.StatusOK, f.do(http.MethodDelete, "/api/v1/routers/core-1/interfaces/1/octets/60").Code)
}

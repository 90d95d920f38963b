package monitor

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/snmp"
	"go.uber.org/zap"
)

// LivenessTracker probes sysUpTime as a heartbeat and remembers the last success per host
type LivenessTracker struct {
	transport snmp.Transport
	registry  *Registry
	clock     clock.Clock
	community string
}

func NewLivenessTracker(transport snmp.Transport, registry *Registry, clk clock.Clock, community string) *LivenessTracker {
	if clk == nil {
		clk = clock.New()
	}
	return &LivenessTracker{transport: transport, registry: registry, clock: clk, community: community}
}

// CheckHost never fails: an unreachable device is reported as DOWN with the
// transport error text and the time elapsed since its last good heartbeat.
func (l *LivenessTracker) CheckHost(ctx context.Context, host string) *domain.LivenessStatus {
	now := l.clock.Now()

	ticks, err := l.transport.GetInteger(ctx, host, snmp.OIDSysUpTime, l.community)
	if err == nil {
		l.registry.RecordOK(host, now)
		uptime := float64(ticks) / 100
		since := 0.0
		last := now
		return &domain.LivenessStatus{
			State:           domain.LivenessUp,
			UptimeSeconds:   &uptime,
			TimeSinceLastOk: &since,
			LastResponse:    &last,
		}
	}

	zap.L().Debug("heartbeat failed",
		zap.String("namespace", "monitor"),
		zap.String("host", host),
		zap.Error(err))

	status := &domain.LivenessStatus{
		State: domain.LivenessDown,
		Error: err.Error(),
	}
	if lastOK, ok := l.registry.LastOK(host); ok {
		since := now.Sub(lastOK).Seconds()
		status.TimeSinceLastOk = &since
		status.LastResponse = &lastOK
	}
	return status
}

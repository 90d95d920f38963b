package app

import (
	"context"
	"sync"
	"time"

	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxWorkers = 25

// SweepLiveness sends one heartbeat to every enabled router so the last-ok
// timestamps stay fresh between API calls.
func (a *Application) SweepLiveness() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), a.roundTimeout(a.appConfig.Monitor.LivenessSweepInterval))
	defer cancel()

	routers, err := a.directory.ListEnabled(ctx)
	if err != nil {
		zap.L().Error("liveness sweep: list routers failed", zap.Error(err))
		return
	}

	// Parallelize probes with a bounded group to limit concurrent goroutines
	var g errgroup.Group
	g.SetLimit(defaultMaxWorkers)
	var mu sync.Mutex
	up, down := 0, 0

	for _, router := range routers {
		r := router
		g.Go(func() error {
			status := a.liveness.CheckHost(ctx, r.IpAdmin)
			mu.Lock()
			defer mu.Unlock()
			if status.State == domain.LivenessUp {
				up++
				return nil
			}
			down++
			zap.L().Warn("router not responding",
				zap.String("namespace", "monitor"),
				zap.String("hostname", r.Hostname),
				zap.String("ip", r.IpAdmin),
				zap.String("error", status.Error))
			return nil
		})
	}
	_ = g.Wait()

	metrics.SetGauge("routers_up", int64(up))
	metrics.SetGauge("routers_down", int64(down))
	metrics.SetGauge("liveness_hosts_tracked", int64(a.registry.LivenessHosts()))
}

// PollActiveCaptures reads the oper status of every interface with capture on,
// which is what turns capture into continuous synthetic event detection.
func (a *Application) PollActiveCaptures() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	keys := a.registry.ActiveLinks()
	metrics.SetGauge("link_captures_active", int64(len(keys)))
	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.roundTimeout(a.appConfig.Monitor.CapturePollInterval))
	defer cancel()

	var g errgroup.Group
	g.SetLimit(defaultMaxWorkers)
	for _, key := range keys {
		k := key
		g.Go(func() error {
			if _, err := a.links.GetState(ctx, k.Host, k.IfIndex); err != nil {
				zap.L().Debug("capture poll failed",
					zap.String("namespace", "monitor"),
					zap.String("key", k.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Application) roundTimeout(interval time.Duration) time.Duration {
	if interval <= 0 {
		return time.Minute
	}
	return interval
}


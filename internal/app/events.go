package app

import (
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/monitor"
	"github.com/talkincode/toughmon/pkg/metrics"
	"go.uber.org/zap"
)

func (a *Application) subscribeEvents() {
	err := a.bus.Subscribe(monitor.TopicLinkEvent, func(key monitor.LinkKey, ev domain.TrapEvent) {
		if ev.Kind == domain.EventLinkUp {
			metrics.Inc("link_up_events")
		} else {
			metrics.Inc("link_down_events")
		}
		zap.L().Info("synthetic link event",
			zap.String("namespace", "monitor"),
			zap.String("host", key.Host),
			zap.Int("if_index", key.IfIndex),
			zap.String("event", ev.Kind),
			zap.String("old_status", domain.OperStatusText(ev.OldStatus)),
			zap.String("new_status", domain.OperStatusText(ev.NewStatus)))
	})
	if err != nil {
		zap.L().Error("subscribe link events failed", zap.Error(err))
	}
}

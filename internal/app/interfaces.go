package app

import (
	"github.com/robfig/cron/v3"
	"github.com/talkincode/toughmon/config"
	"github.com/talkincode/toughmon/internal/monitor"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// MonitorProvider provides the telemetry engine components
type MonitorProvider interface {
	Directory() Directory
	Sampler() *monitor.Sampler
	Liveness() *monitor.LivenessTracker
	Links() *monitor.LinkMonitor
	Sessions() *monitor.SessionManager
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	MonitorProvider

	MigrateDB(track bool) error
	// SweepLiveness runs one heartbeat round over every enabled router
	SweepLiveness()
	// PollActiveCaptures runs one link state poll over every active capture
	PollActiveCaptures()
}

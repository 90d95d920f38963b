package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/benbjohnson/clock"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/talkincode/toughmon/config"
	"github.com/talkincode/toughmon/internal/domain"
	"github.com/talkincode/toughmon/internal/monitor"
	"github.com/talkincode/toughmon/internal/snmp"
	"github.com/talkincode/toughmon/pkg/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	sched     *cron.Cron
	bus       EventBus.Bus
	pool      *ants.Pool
	directory Directory

	registry *monitor.Registry
	sampler  *monitor.Sampler
	liveness *monitor.LivenessTracker
	links    *monitor.LinkMonitor
	sessions *monitor.SessionManager
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ MonitorProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.directory = NewGormDirectory(db)
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Configure output paths
	zapConfig.OutputPaths = []string{"stdout"}
	if cfg.Logger.FileEnable {
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, cfg.Logger.Filename)
	}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)

	if err := metrics.InitMetrics(); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	// Initialize database connection
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	a.OverrideDB(getDatabase(cfg.Database, cfg.System.Workdir))
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}

	transport := snmp.NewGoSNMPTransport(snmp.Options{
		Port:    uint16(cfg.Snmp.Port), //nolint:gosec // G115: port range validated by config
		Timeout: time.Duration(cfg.Snmp.TimeoutSecs) * time.Second,
		Retries: cfg.Snmp.Retries,
	})
	if err := a.InitEngine(instrumentedTransport{next: transport}, clock.New()); err != nil {
		panic(err)
	}

	a.initJob()
}

// InitEngine wires the monitoring components over transport. Init calls it with
// the gosnmp transport; tests call it directly with a fake one.
func (a *Application) InitEngine(transport snmp.Transport, clk clock.Clock) error {
	mcfg := a.appConfig.Monitor
	size := mcfg.WorkerPoolSize
	if size <= 0 {
		size = 64
	}
	// Sampling sessions own this pool. It never queues: a full pool rejects
	// new sessions instead of blocking the caller.
	pool, err := ants.NewPool(size, ants.WithNonblocking(true), ants.WithPanicHandler(func(p interface{}) {
		zap.S().Errorf("sampling worker panic: %v", p)
	}))
	if err != nil {
		return err
	}
	a.pool = pool
	a.bus = EventBus.New()
	a.subscribeEvents()

	community := a.appConfig.Snmp.Community
	a.registry = monitor.NewRegistry(monitor.RegistryOptions{
		EventCapacity:    mcfg.EventCapacity,
		LivenessMaxHosts: mcfg.LivenessMaxHosts,
		LivenessTTL:      mcfg.LivenessTTL,
	})
	a.sampler = monitor.NewSampler(transport, clk, monitor.SamplerOptions{
		Community:      community,
		Interval:       mcfg.SampleInterval,
		PartialOnError: mcfg.PartialOnError,
	})
	a.liveness = monitor.NewLivenessTracker(transport, a.registry, clk, community)
	a.links = monitor.NewLinkMonitor(transport, a.registry, clk, community, a.bus)
	a.sessions = monitor.NewSessionManager(a.sampler, a.registry, a.pool, clk, mcfg.MaxSampleSeconds)
	return nil
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	if track {
		return a.gormDB.Debug().Migrator().AutoMigrate(domain.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(domain.Tables...)
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Directory() Directory {
	return a.directory
}

func (a *Application) Sampler() *monitor.Sampler {
	return a.sampler
}

func (a *Application) Liveness() *monitor.LivenessTracker {
	return a.liveness
}

func (a *Application) Links() *monitor.LinkMonitor {
	return a.links
}

func (a *Application) Sessions() *monitor.SessionManager {
	return a.sessions
}

func (a *Application) Registry() *monitor.Registry {
	return a.registry
}

// Release releases application resources
func (a *Application) Release() error {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.pool != nil {
		a.pool.Release()
	}

	var err error
	if a.gormDB != nil {
		if sqlDB, e := a.gormDB.DB(); e == nil {
			err = multierr.Append(err, sqlDB.Close())
		}
	}
	err = multierr.Append(err, metrics.Close())
	_ = zap.L().Sync()
	return err
}

package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func everySpec(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	mcfg := a.appConfig.Monitor
	var err error
	if mcfg.CapturePollInterval > 0 {
		_, err = a.sched.AddFunc(everySpec(mcfg.CapturePollInterval), a.PollActiveCaptures)
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	if mcfg.LivenessSweepInterval > 0 {
		_, err = a.sched.AddFunc(everySpec(mcfg.LivenessSweepInterval), a.SweepLiveness)
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	a.sched.Start()
}

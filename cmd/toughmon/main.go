package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/talkincode/toughmon/config"
	"github.com/talkincode/toughmon/internal/adminapi"
	"github.com/talkincode/toughmon/internal/app"
	"go.uber.org/zap"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	showVer  = flag.Bool("v", false, "show version")
)

const version = "1.0.0"

func main() {
	flag.Parse()
	if *showVer {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := config.LoadConfig(*conffile)
	cfg.Init()

	application := app.NewApplication(cfg)
	application.Init(cfg)

	e := echo.New()
	e.HideBanner = true
	if !cfg.System.Debug {
		e.Logger.SetLevel(log.ERROR)
	}
	e.Use(middleware.Recover())
	adminapi.RegisterRoutes(e, application)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
		zap.S().Infof("admin api listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalf("admin api stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zap.S().Infof("received %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zap.S().Errorf("admin api shutdown: %v", err)
	}
	if err := application.Release(); err != nil {
		zap.S().Errorf("release: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/hostwatcher/internal/config"
	"github.com/hamed0406/hostwatcher/internal/httpapi"
	"github.com/hamed0406/hostwatcher/internal/logging"
	"github.com/hamed0406/hostwatcher/internal/notify"
	"github.com/hamed0406/hostwatcher/internal/probe"
	"github.com/hamed0406/hostwatcher/internal/repo/memory"
	"github.com/hamed0406/hostwatcher/internal/scheduler"
	"github.com/hamed0406/hostwatcher/internal/watcher"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger, err := logging.NewLogger(logging.Options{LogDir: cfg.LogDir, Level: cfg.LogLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer logger.Sync()

	store, err := config.NewStore(cfg.WatchFile)
	if err != nil {
		logger.Error(fmt.Sprintf("Cannot load config: %v", err), zap.String("path", cfg.WatchFile))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := &watcher.Flag{}
	fw, err := watcher.New(store.Path(), reload, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("Cannot watch config: %v", err))
		return 1
	}

	results := memory.New()
	loop := scheduler.NewLoop(logger, store, reload, notify.NewMailer(logger), results,
		func(w *config.Watch) probe.Checker {
			return probe.New(probe.OptionsFor(w, cfg.PingPrivileged))
		})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fw.Run(gctx) })
	g.Go(func() error {
		forwardHangup(gctx, reload, logger)
		return nil
	})
	if cfg.StatusAddr != "" {
		api := httpapi.NewServer(logger, results, store)
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.Router(cfg.StatusAPIKeys, cfg.StatusOrigins, cfg.StatusRPM, cfg.StatusBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Status API listening", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status api: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	// ErrNoHosts cancels gctx, which stops the watcher and the status API.
	g.Go(func() error { return loop.Run(gctx) })

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, scheduler.ErrNoHosts):
		return 0
	default:
		logger.Error(err.Error())
		return 1
	}
}

// forwardHangup turns SIGHUP into a pending reload, picked up before the
// next cycle like a file change.
func forwardHangup(ctx context.Context, reload *watcher.Flag, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			reload.Set()
			logger.Info("Reload requested by SIGHUP")
		}
	}
}

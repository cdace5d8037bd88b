// Command wizardsched runs the admission scheduler with its telemetry
// monitor and operational HTTP surface.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sgerami52009-hash/wizardai/config"
	"github.com/sgerami52009-hash/wizardai/httpapi"
	"github.com/sgerami52009-hash/wizardai/scheduler"
	"github.com/sgerami52009-hash/wizardai/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (defaults apply when empty)")
	listen := flag.String("listen", "", "override HTTP listen address")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *listen != "" {
		cfg.HTTP.ListenAddress = *listen
	}

	monitor, err := telemetry.NewMonitor(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("failed to create telemetry monitor", slog.String("error", err.Error()))
		os.Exit(1)
	}

	controller, err := scheduler.NewAdmissionController(cfg.Scheduler, nil, logger)
	if err != nil {
		logger.Error("failed to create admission controller", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Telemetry can shed queued background work when memory runs hot.
	monitor.SetCorrectiveTarget(controller)

	// Feed scheduler events into telemetry and the log.
	controller.Subscribe(func(ev scheduler.Event) {
		logger.Info("scheduler event",
			slog.String("type", string(ev.Type)),
			slog.String("request_id", string(ev.RequestID)),
			slog.String("pressure", ev.Pressure.String()),
			slog.String("reason", ev.Reason),
		)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		logger.Error("failed to start controller", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer controller.Stop()

	// Feed process memory into the monitor so the corrective loop can act.
	go func() {
		ticker := time.NewTicker(cfg.Scheduler.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)
				monitor.RecordMemory(mem.HeapAlloc)
			}
		}
	}()

	api := httpapi.NewServer(controller, monitor, logger)
	server := &http.Server{
		Addr:         cfg.HTTP.ListenAddress,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logger.Info("http api listening", slog.String("addr", cfg.HTTP.ListenAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}
}

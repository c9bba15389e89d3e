package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tradecal/internal/config"
	"tradecal/internal/httpapi"
	"tradecal/internal/schedule"
	"tradecal/internal/store"
	"tradecal/internal/util"
)

func main() {
	// Load config.
	cfgPath := "config/tradecal.yaml"
	if p := os.Getenv("TRADECAL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Persist downloaded defaults documents across restarts.
	if cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening defaults archive: %v", err)
		}
		defer db.Close()
		if err := schedule.AttachDefaultsStore(ctx, db); err != nil {
			log.Fatalf("attaching defaults archive: %v", err)
		}
	}

	if cfg.Defaults.Download != "" {
		schedule.DownloadDefaults(cfg.Defaults.Download)
		logger.Info("defaults download configured", "config", cfg.Defaults.Download)
	}

	// Build the configured schedules.
	srv := httpapi.NewServer(logger)
	for _, sc := range cfg.Schedules {
		def := sc.Definition
		if def == "" {
			def = sc.Key
		}
		sched, err := schedule.GetInstanceForDefinition(def)
		if err != nil {
			log.Fatalf("building schedule %s: %v", sc.Name, err)
		}
		if sched == nil {
			log.Fatalf("schedule %s: %q resolves to nothing", sc.Name, def)
		}
		srv.AddSchedule(sched)
		logger.Info("schedule loaded", "name", sched.Name(), "days", len(sched.Days()))
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("tradecal server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down tradecal server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

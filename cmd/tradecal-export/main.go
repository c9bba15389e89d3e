// One-shot tool: export the configured schedules to Parquet for offline
// analysis.
//
// Usage:
//
//	tradecal-export [-out data/schedules]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tradecal/internal/config"
	"tradecal/internal/schedule"
	"tradecal/internal/store"
	"tradecal/internal/util"
)

func main() {
	out := flag.String("out", "", "output directory (default <data_dir>/schedules)")
	flag.Parse()

	cfgPath := "config/tradecal.yaml"
	if p := os.Getenv("TRADECAL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	dir := *out
	if dir == "" {
		dir = cfg.Storage.DataDir + "/schedules"
	}
	exporter := store.NewParquetExporter(dir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, sc := range cfg.Schedules {
		g.Go(func() error {
			def := sc.Definition
			if def == "" {
				def = sc.Key
			}
			sched, err := schedule.GetInstanceForDefinition(def)
			if err != nil {
				return err
			}
			if sched == nil {
				logger.Warn("schedule resolves to nothing, skipping", "name", sc.Name)
				return nil
			}
			if err := exporter.ExportSchedule(ctx, sched); err != nil {
				return err
			}
			logger.Info("schedule exported", "name", sched.Name(), "days", len(sched.Days()))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("export error: %v", err)
	}
	logger.Info("export complete", "dir", dir, "schedules", len(cfg.Schedules))
}

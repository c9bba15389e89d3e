// One-shot tool: import the Alpaca trading calendar and print the resulting
// hours definition, optionally exporting the materialized schedule to
// Parquet.
//
// Usage:
//
//	alpaca-import [-name XNYS] [-start 2024-01-01] [-end 2024-12-31] [-export] [-doc defaults.properties]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tradecal/internal/config"
	"tradecal/internal/store"
	"tradecal/internal/util"
	"tradecal/internal/venues"
)

func main() {
	name := flag.String("name", "XNYS", "schedule name for the imported calendar")
	startArg := flag.String("start", "", "first calendar date, YYYY-MM-DD (default Jan 1 this year)")
	endArg := flag.String("end", "", "last calendar date, YYYY-MM-DD (default Dec 31 this year)")
	export := flag.Bool("export", false, "also export the schedule to Parquet")
	doc := flag.String("doc", "", "append a STOCK.<name>=<definition> entry to this defaults document file")
	flag.Parse()

	cfgPath := "config/tradecal.yaml"
	if p := os.Getenv("TRADECAL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("Alpaca credentials are not configured")
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	start, end, err := importRange(*startArg, *endArg)
	if err != nil {
		log.Fatalf("parsing date range: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	imp := venues.NewCalendarImporter(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, logger)

	def, err := imp.ImportDefinition(ctx, *name, start, end)
	if err != nil {
		log.Fatalf("importing calendar: %v", err)
	}
	fmt.Println(def)

	if *doc != "" {
		f, err := os.OpenFile(*doc, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("opening defaults document: %v", err)
		}
		if _, err := fmt.Fprintf(f, "STOCK.%s=%s\n", *name, def); err != nil {
			log.Fatalf("appending to defaults document: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("closing defaults document: %v", err)
		}
		logger.Info("defaults entry appended", "file", *doc, "key", "STOCK."+*name)
	}

	if *export {
		sched, err := imp.ImportSchedule(ctx, *name, start, end)
		if err != nil {
			log.Fatalf("building schedule: %v", err)
		}
		exporter := store.NewParquetExporter(cfg.Storage.DataDir + "/schedules")
		if err := exporter.ExportSchedule(ctx, sched); err != nil {
			log.Fatalf("exporting schedule: %v", err)
		}
		logger.Info("schedule exported", "name", sched.Name(), "days", len(sched.Days()))
	}
}

func importRange(startArg, endArg string) (start, end time.Time, err error) {
	year := time.Now().Year()
	start = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
	if startArg != "" {
		start, err = time.Parse("2006-01-02", startArg)
		if err != nil {
			return
		}
	}
	if endArg != "" {
		end, err = time.Parse("2006-01-02", endArg)
		if err != nil {
			return
		}
	}
	if end.Before(start) {
		err = fmt.Errorf("end %s precedes start %s", endArg, startArg)
	}
	return
}

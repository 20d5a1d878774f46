// Command calibrate runs the off-line IRT calibration pipeline (spec.md
// §4.I) against the response log: --once runs a single cycle and exits;
// the default mode runs on a cron schedule until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gioe/aiq-assessment/internal/calibration"
	"github.com/gioe/aiq-assessment/internal/config"
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
	"github.com/gioe/aiq-assessment/internal/store/postgres"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	once := flag.Bool("once", false, "run a single calibration cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	items := postgres.NewItemBank(pool)
	responses := postgres.NewResponseLog(pool)
	reliability := postgres.NewReliabilityMetrics(pool)

	if *once {
		runCycle(ctx, items, responses, reliability, cfg.Calibration)
		return
	}

	schedule := getEnv("CALIBRATION_CRON", "0 3 * * *") // daily at 03:00
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		runCycle(ctx, items, responses, reliability, cfg.Calibration)
	}); err != nil {
		log.Fatalf("Failed to schedule calibration cron %q: %v", schedule, err)
	}
	c.Start()
	log.Printf("Calibration scheduler started, cron=%q", schedule)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down calibration scheduler")
	<-c.Stop().Done()
}

// runCycle pulls every completed fixed-form response, runs one
// calibration pass, and persists the results. A run that declines to
// fit (too few responses, too sparse) is logged and skipped rather than
// treated as an error — that outcome is the expected steady state
// between item-bank growth spurts.
func runCycle(ctx context.Context, items store.ItemBank, responses store.ResponseLog, reliability store.ReliabilityMetrics, tunables calibration.Tunables) {
	tuples, err := responses.CalibrationTuples(ctx)
	if err != nil {
		log.Printf("calibration: failed to load response tuples: %v", err)
		return
	}

	toCalTuples := make([]calibration.ResponseTuple, len(tuples))
	for i, t := range tuples {
		toCalTuples[i] = calibration.ResponseTuple{UserID: t.UserID, ItemID: t.ItemID, Correct: t.Correct}
	}

	report := calibration.Run(toCalTuples, tunables)
	if !report.Sufficient {
		log.Printf("calibration: skipped (%s)", report.SkipReason)
		return
	}

	now := time.Now()
	updates := make([]store.CalibrationUpdate, len(report.Fitted))
	for i, f := range report.Fitted {
		updates[i] = store.CalibrationUpdate{
			ItemID: f.ItemID, A: f.A, B: f.B, SEA: f.SEA, SEB: f.SEB,
			PeakInformation: f.PeakInformation, CalibratedAt: now, CalibrationN: f.ResponseCount,
		}
	}
	if err := items.UpdateCalibration(ctx, updates); err != nil {
		log.Printf("calibration: failed to persist item updates: %v", err)
		return
	}

	if err := reliability.Record(ctx, &model.ReliabilityMetric{
		Kind: model.MetricCronbachAlpha, Value: report.CronbachAlpha,
		SampleSize: report.ExamineeCount, CalculatedAt: now,
	}); err != nil {
		log.Printf("calibration: failed to record reliability metric: %v", err)
	}

	log.Printf("calibration: fitted %d items from %d examinees (dropped %d sparse, sparsity %.2f), validation=%s alpha=%.3f",
		report.ItemCount, report.ExamineeCount, report.DroppedSparse, report.Sparsity, report.Validation.Category, report.CronbachAlpha)
}

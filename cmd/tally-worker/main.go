package main

import (
	"context"
	"errors"
	"os"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/backend"
	"tally/internal/cli"
	"tally/internal/config"
	"tally/internal/log"
	"tally/internal/records"
	"tally/internal/records/google"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting tally-worker", "queue", cfg.AMQPQueue, "sheet", cfg.GoogleSheetName)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	sheet, err := google.Open(startCtx, google.Settings{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.CredentialsFile(),
	})
	if err != nil {
		return err
	}
	mirror := worker.NewMirrorWorker(sheet, logger)

	// The source is the app's own store, opened without a publisher. With
	// the sheets backend the sheet is the source and there is nothing to
	// reconcile.
	var source records.Lister
	if cfg.DataBackend != config.BackendSheets {
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		bcfg.AMQPURL = ""
		res, err := backend.NewFactory(logger).Open(startCtx, bcfg)
		if err != nil {
			return err
		}
		defer res.Close()
		source = res.Store
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeRecordEvents(gctx, mirror.HandleRecordEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if source != nil {
		g.Go(func() error {
			backfillLoop(gctx, mirror, source, cfg.BackfillInterval, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	<-done
	return nil
}

// backfillLoop reconciles once at startup, then every interval.
func backfillLoop(ctx context.Context, mirror *worker.MirrorWorker, source records.Lister, interval time.Duration, logger *log.Logger) {
	backfill := func() {
		if err := mirror.Backfill(ctx, source); err != nil && ctx.Err() == nil {
			logger.Error("Backfill failed", log.FieldOperation, log.OpSync, log.FieldError, err)
		}
	}
	backfill()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			backfill()
		}
	}
}

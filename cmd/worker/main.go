package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fredcarvalho/notafiscal/internal/bootstrap"
	"github.com/fredcarvalho/notafiscal/internal/gateway/nfse"
	"github.com/fredcarvalho/notafiscal/internal/gateway/pix"
	infraRedis "github.com/fredcarvalho/notafiscal/internal/infrastructure/redis"
	"github.com/fredcarvalho/notafiscal/internal/repository/postgres"
	"github.com/fredcarvalho/notafiscal/internal/service"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// The worker is the cron-like collaborator: it re-polls every non-terminal
// document and pending charge on a fixed interval so the pipeline advances
// even when nobody is watching a particular invoice. A Redis lock per loop
// keeps multiple worker instances from polling the same batch.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "notafiscal-worker", "notafiscal_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	profileRepo := postgres.NewProfileRepository(app.Pool)
	documentRepo := postgres.NewDocumentRepository(app.Pool)
	chargeRepo := postgres.NewChargeRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	sourceResolver := postgres.NewSourceResolver(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Gateway clients ---
	nfseClient := nfse.NewClient(nfse.Config{
		BaseURL:        app.Config.NFSe.BaseURL,
		APIKey:         app.Config.NFSe.APIKey,
		RequestTimeout: app.Config.NFSe.RequestTimeout,
		MaxRetries:     app.Config.NFSe.MaxRetries,
		RetryDelay:     app.Config.NFSe.RetryDelay,
	})
	pixClient := pix.NewClient(pix.Config{
		BaseURL:        app.Config.Pix.BaseURL,
		APIKey:         app.Config.Pix.APIKey,
		RequestTimeout: app.Config.Pix.RequestTimeout,
		MaxRetries:     app.Config.Pix.MaxRetries,
		RetryDelay:     app.Config.Pix.RetryDelay,
	})

	// --- Services ---
	sequenceService := service.NewSequenceService(profileRepo, txManager)
	documentService := service.NewDocumentService(documentRepo, profileRepo, sequenceService, nfseClient, sourceResolver)
	chargeService := service.NewChargeService(chargeRepo, documentRepo, profileRepo, pixClient, app.Config.Charge.ExpiresIn)

	workerCfg := app.Config.Worker
	app.Logger.Info().
		Dur("poll_interval", workerCfg.PollInterval).
		Dur("charge_poll_interval", workerCfg.ChargePollInterval).
		Int("batch_size", workerCfg.BatchSize).
		Msg("Worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Document reconciler (re-polls non-terminal invoices).
	g.Go(func() error {
		return runLoop(gCtx, "documents", workerCfg.PollInterval, func(loopCtx context.Context) error {
			return reconcileDocuments(loopCtx, app, documentService, documentRepo, workerCfg.BatchSize)
		}, app)
	})

	// 2. Charge reconciler (settles or expires pending charges).
	g.Go(func() error {
		return runLoop(gCtx, "charges", workerCfg.ChargePollInterval, func(loopCtx context.Context) error {
			return reconcileCharges(loopCtx, app.Logger, chargeService, workerCfg.BatchSize)
		}, app)
	})

	// 3. Idempotency key janitor.
	g.Go(func() error {
		return runLoop(gCtx, "idempotency", workerCfg.IdempotencyTTL, func(loopCtx context.Context) error {
			deleted, err := idempotencyRepo.Cleanup(loopCtx)
			if err != nil {
				return err
			}
			if deleted > 0 {
				app.Logger.Info().Int64("deleted", deleted).Msg("Purged expired idempotency keys")
			}
			return nil
		}, app)
	})

	// 4. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

// runLoop runs one reconciliation pass per tick, guarded by a distributed
// lock so only one worker instance handles the loop at a time.
func runLoop(
	ctx context.Context,
	name string,
	interval time.Duration,
	pass func(ctx context.Context) error,
	app *bootstrap.App,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		lock := infraRedis.NewDistributedLock(app.Redis, "reconcile:"+name, app.Config.Worker.LockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Str("loop", name).Msg("Lock acquisition failed")
			continue
		}
		if !acquired {
			// another instance holds the loop
			continue
		}

		start := time.Now()
		if err := pass(ctx); err != nil {
			app.Logger.Error().Err(err).Str("loop", name).Msg("Reconciliation pass failed")
			app.Metrics.ReconcileRunsTotal.WithLabelValues(name, "error").Inc()
		} else {
			app.Metrics.ReconcileRunsTotal.WithLabelValues(name, "success").Inc()
		}
		app.Metrics.ReconcileBatchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		lock.Release(ctx)
	}
}

func reconcileDocuments(
	ctx context.Context,
	app *bootstrap.App,
	documentService *service.DocumentService,
	documentRepo *postgres.DocumentRepository,
	batchSize int,
) error {
	docs, err := documentRepo.ListNonTerminal(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		logger := app.Logger.With().Str("document_id", doc.ID.String()).Str("status", string(doc.Status)).Logger()

		// documents parked on an explicit-send state get the nudge first;
		// the send response already carries the fresh status
		if doc.AwaitingSend {
			if _, err := documentService.Send(ctx, doc.ID); err != nil {
				logger.Error().Err(err).Msg("Send action failed")
			} else {
				logger.Info().Msg("Sent waiting document")
			}
			continue
		}

		updated, err := documentService.Poll(ctx, doc.ID)
		if err != nil {
			logger.Error().Err(err).Msg("Poll failed")
			continue
		}
		if updated.Status != doc.Status {
			logger.Info().Str("new_status", string(updated.Status)).Msg("Document advanced")
			app.Metrics.DocumentTransitions.WithLabelValues(string(doc.Status), string(updated.Status)).Inc()
		}
	}
	return nil
}

func reconcileCharges(
	ctx context.Context,
	logger zerolog.Logger,
	chargeService *service.ChargeService,
	batchSize int,
) error {
	charges, err := chargeService.ListPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, c := range charges {
		updated, err := chargeService.CheckStatus(ctx, c.CorrelationID)
		if err != nil {
			logger.Error().Err(err).Str("correlation_id", c.CorrelationID).Msg("Charge status check failed")
			continue
		}
		if updated.Status != c.Status {
			logger.Info().
				Str("correlation_id", c.CorrelationID).
				Str("new_status", string(updated.Status)).
				Msg("Charge advanced")
		}
	}
	return nil
}

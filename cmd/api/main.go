package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fredcarvalho/notafiscal/internal/bootstrap"
	"github.com/fredcarvalho/notafiscal/internal/controller"
	"github.com/fredcarvalho/notafiscal/internal/gateway/nfse"
	"github.com/fredcarvalho/notafiscal/internal/gateway/pix"
	"github.com/fredcarvalho/notafiscal/internal/repository/postgres"
	"github.com/fredcarvalho/notafiscal/internal/service"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "notafiscal-api", "notafiscal")
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
	profileService := service.NewProfileService(profileRepo)
	sequenceService := service.NewSequenceService(profileRepo, txManager)
	documentService := service.NewDocumentService(documentRepo, profileRepo, sequenceService, nfseClient, sourceResolver)
	chargeService := service.NewChargeService(chargeRepo, documentRepo, profileRepo, pixClient, app.Config.Charge.ExpiresIn)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		ProfileService:  profileService,
		SequenceService: sequenceService,
		DocumentService: documentService,
		ChargeService:   chargeService,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		ServerConfig:    app.Config.Server,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}

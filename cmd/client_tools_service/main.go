package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/partstrader/client_tools/internal/client_tools_service/adapters/partsservice"
	"github.com/partstrader/client_tools/internal/client_tools_service/app"
	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
	"github.com/partstrader/client_tools/internal/client_tools_service/repository/file"
	"github.com/partstrader/client_tools/internal/client_tools_service/repository/postgres"
	httptransport "github.com/partstrader/client_tools/internal/client_tools_service/transport/http"
	"github.com/partstrader/client_tools/internal/platform/config"
	"github.com/partstrader/client_tools/internal/platform/database"
	"github.com/partstrader/client_tools/internal/platform/logger"
	"github.com/partstrader/client_tools/internal/platform/messagebroker"
)

const serviceName = "client_tools_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Client tools service starting...", "port", cfg.ServerPort)

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	// Exclusion list source
	var exclusions domain.ExclusionSource
	switch cfg.ExclusionsSource {
	case "postgres":
		dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		exclusions = postgres.NewPgExclusionRepository(dbPool, appLogger)
	default:
		exclusions = file.NewExclusionRepository(cfg.ExclusionsFile, appLogger)
	}
	appLogger.Info("Exclusion source configured", "source", cfg.ExclusionsSource, "file", cfg.ExclusionsFile)

	// Compatible-parts lookup
	var lookup domain.CompatiblePartsLookup
	switch cfg.LookupMode {
	case "remote":
		lookup = partsservice.NewRemoteLookup(appLogger, cfg.PartsServiceURL, cfg.PartsServiceAPIKey, cfg.PartsServiceTimeout(), nil)
	default:
		lookup = partsservice.NewMockLookup(appLogger, cfg.MockMaxParts, nil)
	}
	appLogger.Info("Compatible parts lookup configured", "lookup", lookup.Name())

	// NATS (optional)
	var publisher app.EventPublisher
	if cfg.NATSURL != "" {
		natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
		if err != nil {
			// Events are an audit trail only; the endpoint works without them.
			appLogger.Error("Failed to connect to NATS, events disabled", "url", cfg.NATSURL, "error", err)
		} else {
			defer natsClient.Close()
			publisher = natsClient
			appLogger.Info("NATS client connected", "url", cfg.NATSURL)
		}
	} else {
		appLogger.Info("NATS URL not configured, compatibility events will not be published.")
	}

	service := app.NewCompatibilityService(exclusions, lookup, publisher, appLogger)
	handler := httptransport.NewCompatibilityHandler(service, appLogger, validator.New())
	router := httptransport.NewRouter(handler, appLogger, cfg.RequestTimeout())

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		stopSignal := make(chan os.Signal, 1)
		signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(stopSignal)
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Shutting down HTTP server...")
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("HTTP server shutdown failed", "error", err)
			return err
		}
		appLogger.Info("HTTP server shut down gracefully.")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error", "error", err)
	}
	appLogger.Info("Client tools service shut down.")
}

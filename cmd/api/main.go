package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/flowerdream/api/internal/handlers"
	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/config"
	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/platform/ingest"
	"github.com/flowerdream/api/internal/platform/jobs"
	"github.com/flowerdream/api/internal/platform/mail"
	"github.com/flowerdream/api/internal/platform/observability"
	"github.com/flowerdream/api/internal/platform/secrets"
	platformstorage "github.com/flowerdream/api/internal/platform/storage"
	firestoreRepo "github.com/flowerdream/api/internal/repositories/firestore"
	"github.com/flowerdream/api/internal/services"

	"github.com/go-chi/chi/v5"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := newSecretFetcher(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreRepo.Deps{Provider: firestoreProvider})
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	storageClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	uploader, err := platformstorage.NewUploader(storageClient, cfg.Storage.UploadsBucket,
		platformstorage.WithPublicBaseURL(cfg.Storage.PublicBaseURL),
	)
	if err != nil {
		logger.Fatal("failed to initialise uploader", zap.Error(err))
	}

	var mailer services.OrderMailer
	if cfg.Features.EnableEmail {
		m, err := mail.NewMailer(cfg.SMTP)
		if err != nil {
			logger.Fatal("failed to initialise mailer", zap.Error(err))
		}
		mailer = m
	} else {
		logger.Info("order emails disabled")
	}

	var events services.OrderEventPublisher
	var pubsubClient *pubsub.Client
	if cfg.Features.EnableOrderEvents {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err := jobs.NewPubSubOrderEventPublisher(pubsubClient.Topic(cfg.PubSub.OrderEventsTopic))
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		events = publisher
	} else {
		logger.Info("order event stream disabled")
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Flowers:  registry.Flowers(),
		Bouquets: registry.Bouquets(),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:        registry.Orders(),
		Flowers:       registry.Flowers(),
		Bouquets:      registry.Bouquets(),
		Notifications: registry.Notifications(),
		Mailer:        mailer,
		Events:        events,
		Clock:         time.Now,
		Logger:        zapEventLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	importService, err := services.NewImportService(services.ImportServiceDeps{
		Catalog:   catalogService,
		Uploader:  uploader,
		Extractor: ingest.NewExtractor(),
		Logger:    zapEventLogger(logger.Named("imports")),
	})
	if err != nil {
		logger.Fatal("failed to initialise import service", zap.Error(err))
	}

	uploadService, err := services.NewUploadService(services.UploadServiceDeps{Uploader: uploader})
	if err != nil {
		logger.Fatal("failed to initialise upload service", zap.Error(err))
	}

	backupService, err := services.NewBackupService(services.BackupServiceDeps{
		Backups:     registry.Backups(),
		Collections: registry.Collections(),
		Clock:       time.Now,
		Logger:      zapEventLogger(logger.Named("backups")),
	})
	if err != nil {
		logger.Fatal("failed to initialise backup service", zap.Error(err))
	}

	notificationService, err := services.NewNotificationService(services.NotificationServiceDeps{
		Notifications: registry.Notifications(),
	})
	if err != nil {
		logger.Fatal("failed to initialise notification service", zap.Error(err))
	}

	flowerProxy := handlers.NewCollectionHandlers(registry.Collections(), "flowers", authenticator, handlers.WithPublicRead())
	bouquetProxy := handlers.NewCollectionHandlers(registry.Collections(), "bouquets", authenticator, handlers.WithPublicRead())
	backupProxy := handlers.NewCollectionHandlers(registry.Collections(), "backups", authenticator)
	backupOps := handlers.NewBackupHandlers(authenticator, backupService)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService)
	notificationHandlers := handlers.NewNotificationHandlers(authenticator, notificationService)
	uploadHandlers := handlers.NewUploadHandlers(authenticator, uploadService)
	importHandlers := handlers.NewImportHandlers(authenticator, importService)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(registry)),
		handlers.WithFlowerRoutes(flowerProxy.Routes),
		handlers.WithBouquetRoutes(bouquetProxy.Routes),
		handlers.WithBackupRoutes(func(r chi.Router) {
			backupProxy.Routes(r)
			backupOps.Routes(r)
		}),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithNotificationRoutes(notificationHandlers.Routes),
		handlers.WithUploadRoutes(uploadHandlers.Routes),
		handlers.WithImportRoutes(importHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("flowerdream api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func zapEventLogger(logger *zap.Logger) func(ctx context.Context, event string, fields map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
	}
	if project := lookup("API_SECRET_PROJECT_ID"); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	} else if project := lookup("API_FIREBASE_PROJECT_ID"); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	}
	if fallback := lookup("API_SECRET_FALLBACK_FILE"); fallback != "" {
		opts = append(opts, secrets.WithFallbackFile(fallback))
	}
	if credentials := lookup("API_FIREBASE_CREDENTIALS_FILE"); credentials != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentials)))
	}

	return secrets.NewFetcher(ctx, opts...)
}

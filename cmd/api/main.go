package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/aroma-notes/api/internal/content"
	"github.com/aroma-notes/api/internal/handlers"
	"github.com/aroma-notes/api/internal/platform/auth"
	"github.com/aroma-notes/api/internal/platform/config"
	pfirestore "github.com/aroma-notes/api/internal/platform/firestore"
	"github.com/aroma-notes/api/internal/platform/idempotency"
	"github.com/aroma-notes/api/internal/platform/jobs"
	"github.com/aroma-notes/api/internal/platform/observability"
	"github.com/aroma-notes/api/internal/platform/secrets"
	platformstorage "github.com/aroma-notes/api/internal/platform/storage"
	firestoreRepo "github.com/aroma-notes/api/internal/repositories/firestore"
	"github.com/aroma-notes/api/internal/services"
)

const idempotencyCleanupInterval = time.Hour

func main() {
	ctx := context.Background()

	fetcher, fetcherErr := secrets.NewFetcher(ctx)
	var resolver config.SecretResolver
	if fetcherErr == nil {
		resolver = fetcher
		defer func() {
			if err := fetcher.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "secret fetcher close error: %v\n", err)
			}
		}()
	}

	cfg, err := config.Load(ctx,
		config.WithEnvFile(".env"),
		config.WithSecretResolver(resolver),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) && fetcherErr != nil {
			fmt.Fprintf(os.Stderr, "secret manager unavailable: %v\n", fetcherErr)
		}
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("api")

	firestoreProvider, err := pfirestore.NewProvider(ctx, cfg.Firestore.ProjectID, cfg.Firestore.DatabaseID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal("failed to initialise firestore", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()
	firestoreClient := firestoreProvider.Client()

	verifier, err := auth.NewFirebaseVerifier(ctx, firebaseProjectID(cfg), cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}

	gcsClient, err := cloudstorage.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise cloud storage client", zap.Error(err))
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logger.Warn("cloud storage close error", zap.Error(err))
		}
	}()

	if cfg.Storage.ServiceAccount == "" || cfg.Storage.PrivateKeySecret == "" {
		logger.Fatal("storage signing credentials are required",
			zap.String("hint", "set STORAGE_SERVICE_ACCOUNT and STORAGE_PRIVATE_KEY"))
	}
	signer, err := platformstorage.NewGoogleURLSigner(cfg.Storage.Bucket, cfg.Storage.ServiceAccount, []byte(cfg.Storage.PrivateKeySecret))
	if err != nil {
		logger.Fatal("failed to initialise url signer", zap.Error(err))
	}
	storageClient, err := platformstorage.NewClient(platformstorage.Deps{
		Bucket:       cfg.Storage.Bucket,
		GCS:          gcsClient,
		Signer:       signer,
		SignedURLTTL: cfg.Storage.SignedURLTTL,
		MaxSlipSize:  cfg.Checkout.MaxSlipSizeBytes,
	})
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}

	var publisher jobs.Publisher = jobs.NopPublisher{}
	if cfg.Events.Topic != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := pubsubClient.Topic(cfg.Events.Topic)
		defer func() {
			topic.Stop()
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err = jobs.NewPubSubPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
	} else {
		logger.Info("order events disabled; no topic configured")
	}

	cartRepo, err := firestoreRepo.NewCartRepository(firestoreClient)
	if err != nil {
		logger.Fatal("failed to initialise cart repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreClient)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	productRepo, err := firestoreRepo.NewProductRepository(firestoreClient)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	settingsRepo, err := firestoreRepo.NewSettingsRepository(firestoreClient)
	if err != nil {
		logger.Fatal("failed to initialise settings repository", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Carts: cartRepo,
		Clock: time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}
	settingsService, err := services.NewSettingsService(services.SettingsServiceDeps{
		Settings: settingsRepo,
		Clock:    time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise settings service", zap.Error(err))
	}
	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Cart:         cartService,
		Orders:       orderRepo,
		Settings:     settingsService,
		Storage:      storageClient,
		Events:       publisher,
		IDs:          services.ULIDGenerator{},
		OrderNumbers: services.RandomOrderNumberGenerator{},
		Clock:        time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: orderRepo,
		Events: publisher,
		Clock:  time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}
	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: productRepo,
		Storage:  storageClient,
		IDs:      services.ULIDGenerator{},
		Clock:    time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	var contentService services.ContentService
	if cfg.Content.ProjectID != "" {
		contentClient, err := content.NewClient(content.Config{
			ProjectID:  cfg.Content.ProjectID,
			Dataset:    cfg.Content.Dataset,
			APIVersion: cfg.Content.APIVersion,
			Token:      cfg.Content.Token,
			CacheTTL:   cfg.Content.CacheTTL,
			UseCDN:     cfg.Content.UseCDN,
		}, nil)
		if err != nil {
			logger.Fatal("failed to initialise content client", zap.Error(err))
		}
		contentService, err = services.NewContentService(contentClient)
		if err != nil {
			logger.Fatal("failed to initialise content service", zap.Error(err))
		}
	} else {
		logger.Info("content catalog disabled; no sanity project configured")
	}

	feedCtx, feedCancel := context.WithCancel(context.Background())
	defer feedCancel()
	orderFeed, err := services.NewOrderFeed(feedCtx, services.OrderFeedDeps{
		Orders: orderRepo,
		Logger: logger.Named("orders.feed"),
	})
	if err != nil {
		logger.Fatal("failed to initialise order feed", zap.Error(err))
	}

	var idempotencyStore idempotency.Store
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	if cfg.Idempotency.Enabled {
		store, err := idempotency.NewFirestoreStore(firestoreClient, cfg.Idempotency.Collection)
		if err != nil {
			logger.Fatal("failed to initialise idempotency store", zap.Error(err))
		}
		idempotencyStore = store

		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("idempotency")
			ticker := time.NewTicker(idempotencyCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, time.Minute)
					removed, err := store.CleanupExpired(runCtx, time.Now().UTC())
					cancel()
					if err != nil {
						cleanupLogger.Error("cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("cleanup removed expired keys", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	} else {
		idempotencyStore = idempotency.NewMemoryStore()
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Logger:           logger.Named("http"),
		Verifier:         verifier,
		Cart:             cartService,
		Checkout:         checkoutService,
		Orders:           orderService,
		Feed:             orderFeed,
		Catalog:          catalogService,
		Content:          contentService,
		Settings:         settingsService,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.Idempotency.TTL,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		Ready:            firestoreReadyCheck(firestoreClientPinger{firestoreProvider}),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("aroma-notes api listening", zap.String("environment", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	feedCancel()
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func firebaseProjectID(cfg *config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

type firestoreClientPinger struct {
	provider *pfirestore.Provider
}

func (p firestoreClientPinger) ping(ctx context.Context) error {
	iter := p.provider.Client().Collections(ctx)
	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}

func firestoreReadyCheck(pinger firestoreClientPinger) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
		defer cancel()
		return pinger.ping(ctx) == nil
	}
}

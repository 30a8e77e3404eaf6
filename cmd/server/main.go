package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"cafepos/internal/app"
	"cafepos/internal/config"
	"cafepos/internal/handler"
	"cafepos/internal/payment"
	internalRedis "cafepos/internal/redis"
	"cafepos/internal/repository"
	"cafepos/internal/repository/postgres"
	"cafepos/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before storage so we can instrument it).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	// Redis serves the idempotency middleware and, by default, the slot store.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Select the slot store backend.
	var slots repository.SlotStore
	switch cfg.Store.Backend {
	case "postgres":
		db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("Connected to PostgreSQL")

		pgSlots := postgres.NewSlotStore(db, cfg.Store.Prefix)
		if err := pgSlots.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to ensure slots schema: %v", err)
		}
		slots = pgSlots
	default:
		slots = internalRedis.NewSlotStore(redisClient, cfg.Store.Prefix)
	}

	// Load the catalog document once at startup.
	catalog, err := service.LoadCatalog(ctx, cfg.Catalog.Source)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	log.Printf("Loaded catalog: %d items", len(catalog.Items))
	if catalog.OfferString != "" {
		if err := slots.Set(ctx, repository.SlotOfferString, catalog.OfferString); err != nil {
			log.Printf("failed to persist offer string: %v", err)
		}
	}

	// Stable per-install client key for the resolution network.
	clientKey, err := service.LoadClientKey(ctx, slots)
	if err != nil {
		log.Fatalf("failed to load client key: %v", err)
	}
	log.Printf("Client key ready (fingerprint %s)", hex.EncodeToString(clientKey[:4]))

	// Resolution client. The dev resolver fabricates invoices in-process;
	// a relay-backed client slots in behind the same interface.
	var resolver payment.Client
	var devClient *payment.DevClient
	if cfg.Payment.DevResolver {
		devClient = payment.NewDevClient()
		resolver = devClient
		log.Println("Using in-process dev resolution client")
	} else {
		log.Fatalf("no relay resolution client configured; set PAYMENT_DEV_RESOLVER=true")
	}

	// Exchange rate feed: immediate fetch, then periodic refresh.
	rates := service.NewRateFeed(cfg.Rates.URL, cfg.Rates.Currency, cfg.Rates.Interval)
	rates.Start(context.Background())
	defer rates.Stop()

	// Cart ledger and checkout coordinator, restored from persisted slots.
	ledger := service.NewCartLedger(slots)
	if err := ledger.Restore(ctx); err != nil {
		log.Fatalf("failed to restore cart: %v", err)
	}

	coordinator := service.NewCheckoutCoordinator(ledger, rates, slots, resolver, clientKey, cfg.Payment.RequestTimeout)
	if err := coordinator.Restore(ctx); err != nil {
		log.Fatalf("failed to restore checkout session: %v", err)
	}

	// Wire handlers and router.
	menuHandler := handler.NewMenuHandler(catalog, rates)
	cartHandler := handler.NewCartHandler(ledger, catalog, rates)
	checkoutHandler := handler.NewCheckoutHandler(coordinator, catalog.OfferString)
	var devHandler *handler.DevHandler
	if devClient != nil {
		devHandler = handler.NewDevHandler(devClient)
	}

	router := app.NewRouter(app.RouterDeps{
		MenuHandler:     menuHandler,
		CartHandler:     cartHandler,
		CheckoutHandler: checkoutHandler,
		DevHandler:      devHandler,
		RedisClient:     redisClient,
		KeyPrefix:       cfg.Store.Prefix,
		NewRelicApp:     nrApp,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

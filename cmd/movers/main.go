package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"MarketMovers/internal/api"
	"MarketMovers/internal/catalog"
	"MarketMovers/internal/collector"
	"MarketMovers/internal/config"
	"MarketMovers/internal/indicator"
	"MarketMovers/internal/model"
	"MarketMovers/internal/movers"
	"MarketMovers/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketMovers starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	fetcher := collector.NewCoinbaseFetcher(cfg.Market.BaseURL, cfg.Proxy, cfg.Market.Timeout)
	fetcher.MaxCandles = cfg.Market.MaxCandles
	log.Printf("[INFO] data source: %s (%s)", fetcher.Name(), fetcher.BaseURL)

	// Init catalog
	var store catalog.Store
	sqlStore, err := catalog.OpenSQLStore(cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		log.Printf("[WARN] open %s catalog failed, using in-memory catalog: %v", cfg.Catalog.Driver, err)
		store = catalog.NewMemoryStore()
	} else {
		store = sqlStore
	}
	defer store.Close()

	// Init indicator cache
	cache := newIndicatorStore(cfg)
	if c, ok := cache.(*indicator.RedisStore); ok {
		defer c.Close()
	}
	indicators := indicator.NewService(cache, fetcher,
		indicator.WithTTL(cfg.Indicators.TTL),
		indicator.WithMinSamples(cfg.Indicators.MinSamples),
	)

	aggregator := movers.NewAggregator(store, fetcher, cfg.Movers.Workers)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, catalog.NewSyncer(fetcher, store), store)
	if err := sched.RegisterAll(cfg.Catalog.SyncCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Catalog.SyncOnStart {
		log.Println("[INFO] sync_on_start enabled, syncing catalog now")
		go sched.RunSyncNow()
	} else {
		go sched.SyncIfEmpty()
	}

	// HTTP server
	handler := api.NewHandler(store, aggregator, indicators, api.Defaults{
		Limit:        cfg.Movers.DefaultLimit,
		MaxProducts:  cfg.Movers.MaxProducts,
		Period:       cfg.Indicators.DefaultPeriod,
		RSIFrequency: model.Freq1h,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(cfg.Server.Mode, handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[INFO] HTTP server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] MarketMovers is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] MarketMovers stopped")
}

// newIndicatorStore prefers Redis when configured and reachable.
func newIndicatorStore(cfg *config.Config) indicator.Store {
	if cfg.Cache.RedisAddr == "" {
		log.Println("[INFO] indicator cache: memory")
		return indicator.NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	rs := indicator.NewRedisStore(client, cfg.Cache.Prefix, cfg.Indicators.TTL)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		log.Printf("[WARN] redis %s unreachable, using in-memory indicator cache: %v", cfg.Cache.RedisAddr, err)
		client.Close()
		return indicator.NewMemoryStore()
	}
	log.Printf("[INFO] indicator cache: redis %s", cfg.Cache.RedisAddr)
	return rs
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/goalstore"
	"github.com/pathwise/pathwise/internal/linkcheck"
	"github.com/pathwise/pathwise/internal/pipeline"
	"github.com/pathwise/pathwise/internal/provider"
	"github.com/pathwise/pathwise/internal/selector"
	"github.com/pathwise/pathwise/internal/server"
	"github.com/pathwise/pathwise/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("starting", zap.String("version", version.Get().String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var geminiOpts []provider.GeminiOption
	if cfg.Gemini.BaseURL != "" {
		geminiOpts = append(geminiOpts, provider.WithGeminiBaseURL(cfg.Gemini.BaseURL))
	}
	backend := provider.NewGeminiBackend(cfg.Gemini.APIKey, geminiOpts...)

	var cache selector.CatalogCache
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		cache = selector.NewRedisCache(client, config.Duration(cfg.Cache.TTL), logger)
		logger.Info("model catalog cache on redis", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		cache = selector.NewMemoryCache(config.Duration(cfg.Cache.TTL))
		logger.Info("model catalog cache in memory")
	}
	catalog := selector.NewCatalog(backend, cache, logger)

	var db *goalstore.DB
	switch cfg.Store.Driver {
	case "postgres":
		db, err = goalstore.OpenPostgres(cfg.Store.DSN)
	default:
		db, err = goalstore.OpenSQLite(cfg.Store.DataDir)
	}
	if err != nil {
		return fmt.Errorf("opening goal store: %w", err)
	}
	defer db.Close()
	store := goalstore.NewSQLStore(db)

	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)

	opts := pipeline.DefaultOptions()
	if len(cfg.Gemini.Preferences) > 0 {
		opts.Preferences = cfg.Gemini.Preferences
	}
	opts.MaxAttempts = cfg.Generation.MaxAttempts
	opts.InitialBackoff = config.Duration(cfg.Generation.InitialBackoff)
	opts.MaxBackoff = config.Duration(cfg.Generation.MaxBackoff)
	opts.StepFilterTimeout = config.Duration(cfg.Generation.StepFilterTimeout)
	opts.DisableFallback = cfg.Generation.DisableFallback
	opts.Temperature = cfg.Gemini.Temperature
	opts.MaxOutputTokens = cfg.Gemini.MaxOutputTokens

	checker := linkcheck.New(logger)
	orch := pipeline.New(catalog, backend, checker, opts, metrics, logger)

	// Warm the catalog and keep it fresh on a schedule so the first
	// request does not pay the list-models round trip.
	if _, err := catalog.Refresh(ctx); err != nil {
		logger.Warn("initial catalog refresh failed", zap.Error(err))
	}
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Cache.RefreshSchedule, func() {
		if _, err := catalog.Refresh(context.Background()); err != nil {
			logger.Warn("catalog refresh failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", cfg.Cache.RefreshSchedule, err)
	}
	sched.Start()
	defer sched.Stop()

	verifier := &server.StaticTokenVerifier{Token: cfg.Server.AuthToken}
	srv := server.New(orch, store, verifier, registry, logger)

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

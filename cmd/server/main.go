package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/minli-dev/minli/config"
	appmodel "github.com/minli-dev/minli/internal/app/model"
	apprepository "github.com/minli-dev/minli/internal/app/repository"
	appserver "github.com/minli-dev/minli/internal/app/server"
	appservice "github.com/minli-dev/minli/internal/app/service"
	"github.com/minli-dev/minli/internal/infra/codefilter"
	"github.com/minli-dev/minli/internal/infra/logger"
	infraNATS "github.com/minli-dev/minli/internal/infra/nats"
	infraPostgres "github.com/minli-dev/minli/internal/infra/postgres"
	infraPrometheus "github.com/minli-dev/minli/internal/infra/prometheus"
	infraRedis "github.com/minli-dev/minli/internal/infra/redis"
	"go.uber.org/zap"
)

const expiredLinkRetention = 24 * time.Hour

func main() {
	ctx := context.Background()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.String("base_url", cfg.App.BaseURL),
		zap.Int("port", cfg.App.Port),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Link{}, &appmodel.ClickEvent{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	linkRepo := apprepository.NewLinkRepository(gormDB)
	clickRepo := apprepository.NewClickEventRepository(gormDB)
	usageRepo := apprepository.NewUsageRepository(pool)

	filter := codefilter.New(0)
	codes, err := linkRepo.ListCodes(ctx)
	if err != nil {
		log.Fatal("Failed to load short codes", zap.Error(err))
	}
	filter.Warm(codes)
	log.Info("Warmed short code filter", zap.Int("codes", len(codes)))

	clickConsumer := appservice.NewClickConsumer(js, log, clickRepo)
	if err := clickConsumer.Start(); err != nil {
		log.Fatal("Failed to start click consumer", zap.Error(err))
	}

	expiryChecker := appservice.NewLinkExpiryChecker(log, linkRepo, expiredLinkRetention)
	expiryChecker.Start()
	defer expiryChecker.Stop()

	redirects := appservice.NewRedirectService(appservice.RedirectDeps{
		Resolver: appservice.NewLinkResolver(linkRepo, redisClient, filter, log),
		Usage:    usageRepo,
		Clicks:   appservice.NewClickPublisher(js),
		Logger:   log,
	})
	links := appservice.NewLinkService(linkRepo, redisClient, filter, cfg.App.BaseURL)

	server := appserver.New(appserver.Dependencies{
		Logger:    log,
		Redis:     redisClient,
		Redirects: redirects,
		Links:     links,
		Secret:    []byte(cfg.App.Secret),
		BaseURL:   cfg.App.BaseURL,
	})

	if err := server.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
}

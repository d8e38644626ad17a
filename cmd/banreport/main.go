package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"banreport/internal/config"
	"banreport/internal/handler"
	infraredis "banreport/internal/infra/redis"
	"banreport/internal/infra/sqlite"
	"banreport/internal/infra/sqlite/migrations"
	"banreport/internal/keysource"
	"banreport/internal/lookup"
	"banreport/internal/notify"
	"banreport/internal/observability"
	"banreport/internal/pipeline"
	"banreport/internal/ratelimit"
	"banreport/internal/report"
	"banreport/internal/repository"
	"banreport/internal/service"
	"banreport/internal/transport"
)

func main() {
	serve := flag.Bool("serve", false, "run as a long-lived service with a report schedule and HTTP API")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := sqlite.NewSQLite(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("sqlite initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("sqlite underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	runRepo := repository.NewGormRunRepo(db)

	enricher, err := lookup.NewClient(
		cfg.LookupBaseURL,
		cfg.APIToken,
		time.Duration(cfg.LookupTimeoutSeconds)*time.Second,
	)
	if err != nil {
		logger.Fatal("lookup client initialization failed", zap.Error(err))
	}

	slots, err := ratelimit.NewSlots(cfg.MaxConcurrentRequests)
	if err != nil {
		logger.Fatal("slot limiter initialization failed", zap.Error(err))
	}

	var waiter ratelimit.Waiter = ratelimit.NopWaiter{}
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()

		waiter, err = infraredis.NewLookupRateLimiter(rdb, cfg.LookupRatePerSec)
		if err != nil {
			logger.Fatal("lookup rate limiter initialization failed", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()

	pipe, err := pipeline.New(
		keysource.NewIPTablesLister(cfg.FirewallChain),
		enricher,
		slots,
		waiter,
		logger,
	)
	if err != nil {
		logger.Fatal("pipeline initialization failed", zap.Error(err))
	}
	pipe.SetMetrics(metrics)
	pipe.SetObserver(func(completed, total int) {
		logger.Info("enrichment progress", zap.Int("completed", completed), zap.Int("total", total))
	})

	writer, err := report.NewWriter(cfg.OutputFile)
	if err != nil {
		logger.Fatal("report writer initialization failed", zap.Error(err))
	}

	svc, err := service.NewReportService(pipe, writer, runRepo, cfg.OutputFile, logger)
	if err != nil {
		logger.Fatal("report service initialization failed", zap.Error(err))
	}
	svc.SetMetrics(metrics)

	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Fatal("telegram notifier initialization failed", zap.Error(err))
		}
		svc.SetNotifier(notifier)
	} else {
		logger.Info("telegram notifications disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*serve {
		if _, err := svc.Run(ctx); err != nil {
			logger.Fatal("report run failed", zap.Error(err))
		}
		return
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	handler.RegisterHealthRoutes(app, sqlDB, rdb)

	trigger := func() {
		go func() {
			if _, err := svc.Run(context.Background()); err != nil {
				logger.Error("triggered run failed", zap.Error(err))
			}
		}()
	}
	if err := handler.RegisterRunRoutes(app, runRepo, trigger); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	scheduler, err := service.NewScheduler(svc, cfg.ReportCron, logger)
	if err != nil {
		logger.Fatal("scheduler initialization failed", zap.Error(err))
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Start(groupCtx)
	})
	g.Go(func() error {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		return app.Shutdown()
	})

	logger.Info("banreport service started",
		zap.Int("port", cfg.APIPort),
		zap.String("schedule", cfg.ReportCron),
	)

	if err := g.Wait(); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
}

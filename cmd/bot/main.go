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

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/controller"
	"github.com/Freeeeeet/lesson_booking/internal/controller/middleware"
	"github.com/Freeeeeet/lesson_booking/internal/controller/ops"
	"github.com/Freeeeeet/lesson_booking/internal/lock"
	"github.com/Freeeeeet/lesson_booking/internal/metrics"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/repository/memory"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting lesson booking",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("bot_enabled", cfg.TelegramToken != ""),
	)

	location, err := cfg.Location()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)
	locker := lock.NewKeyedLocker()

	// Сервисы
	reservationService := service.NewReservationService(store, locker, recorder, logger, cfg.LockTimeout)
	slotService := service.NewSlotService(store, locker, recorder, logger, cfg.LockTimeout)
	matcherService := service.NewMatcherService(store, recorder, logger, location, cfg.MatchHorizon)
	guardService := service.NewGuardService(store, locker, recorder, logger, cfg.LockTimeout)

	// Фоновое закрытие прошедших занятий
	scheduler := app.NewScheduler(slotService, time.Hour, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           ops.NewRouter(store, registry, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("Ops server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server failed", zap.Error(err))
			stop()
		}
	}()

	if cfg.TelegramToken != "" {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, logger)
		defer limiter.Stop()

		b, err := bot.New(cfg.TelegramToken,
			bot.WithMiddlewares(limiter.Middleware),
			bot.WithErrorsHandler(func(err error) {
				logger.Warn("Telegram error", zap.Error(err))
			}),
		)
		if err != nil {
			return err
		}

		botController := controller.NewBotController(
			b,
			reservationService,
			slotService,
			matcherService,
			guardService,
			location,
			logger,
		)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}

		go botController.Start(ctx)
	} else {
		logger.Warn("TELEGRAM_TOKEN is empty, bot is disabled")
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ops server shutdown failed", zap.Error(err))
	}

	logger.Info("Stopped gracefully")
	return nil
}

// openStore выбирает хранилище по конфигу; для postgres применяет миграции
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return nil, nil, err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return repository.NewPgStore(pool, cfg.LockTimeout), pool.Close, nil
}

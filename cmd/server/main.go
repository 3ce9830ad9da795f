// Package main runs the attendance bot: Telegram webhook (or long polling), health and metrics, with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lobatera/asistencia/config"
	"github.com/lobatera/asistencia/internal/attendance"
	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/confirmations"
	"github.com/lobatera/asistencia/internal/events"
	"github.com/lobatera/asistencia/internal/lock"
	"github.com/lobatera/asistencia/internal/metrics"
	"github.com/lobatera/asistencia/internal/middleware"
	"github.com/lobatera/asistencia/internal/models"
	"github.com/lobatera/asistencia/internal/registry"
	"github.com/lobatera/asistencia/internal/render"
	"github.com/lobatera/asistencia/internal/telegram"
	"github.com/lobatera/asistencia/internal/workflow"
	"github.com/lobatera/asistencia/pkg/database"
	"github.com/lobatera/asistencia/pkg/redis"
	"github.com/lobatera/asistencia/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal("TELEGRAM_TOKEN is required")
	}
	loc, err := cfg.Workflow.Location()
	if err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	applied, err := database.Migrate(ctx, pool)
	if err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("files", applied))
	}

	// Redis is optional: without it locks are in-process and updates are not de-duplicated.
	var (
		locker workflow.Locker = lock.NewLocalLocker()
		dedup  telegram.Deduper
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb.Client, cfg.Workflow.LockTTL(), logger)
		dedup = telegram.NewRedisDeduper(rdb.Client)
	} else {
		logger.Warn("REDIS_ADDR not set; using in-process locks, single instance only")
	}

	m := metrics.NewMetrics()
	engine := workflow.NewEngine(workflow.Deps{
		Registry:      registry.NewRepository(pool),
		Events:        events.NewRepository(pool, logger),
		Confirmations: confirmations.NewRepository(pool, models.ConfirmationPolicy(cfg.Workflow.ConfirmationPolicy)),
		Attendance:    attendance.NewRepository(pool),
		Locker:        locker,
		Clock:         calendar.NewClock(loc),
		Scope:         models.AttendanceScope(cfg.Workflow.AttendanceScope),
		StoreTimeout:  cfg.Workflow.StoreTimeout(),
		Logger:        logger,
		Metrics:       m,
	})

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("telegram", zap.Error(err))
	}
	logger.Info("telegram bot authorized", zap.String("username", bot.Self.UserName))
	dispatcher := telegram.NewDispatcher(bot, engine, dedup, cfg.Workflow.TurnTimeout(), logger, m)

	router := newRouter(logger, pool.Ping, dispatcher, cfg.Telegram)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	pollCtx, pollCancel := context.WithCancel(context.Background())
	defer pollCancel()
	pollDone := make(chan struct{})
	if url := cfg.Telegram.WebhookURL(); url != "" {
		if err := telegram.SetWebhook(bot, url, cfg.Telegram.WebhookSecret); err != nil {
			logger.Fatal("set webhook", zap.Error(err))
		}
		logger.Info("webhook registered", zap.String("url", url))
		close(pollDone)
	} else {
		if err := telegram.DeleteWebhook(bot, false); err != nil {
			logger.Fatal("delete webhook", zap.Error(err))
		}
		logger.Info("BASE_URL not set; long polling")
		go func() {
			telegram.Poll(pollCtx, bot, dispatcher)
			close(pollDone)
		}()
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	pollCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	select {
	case <-pollDone:
	case <-shutdownCtx.Done():
	}
	logger.Info("server stopped")
}

func newRouter(logger *zap.Logger, ping func(context.Context) error, d *telegram.Dispatcher, tg config.TelegramConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger, "/", "/health", "/metrics"))

	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, render.Alive) })
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST(tg.WebhookPath, telegram.WebhookHandler(d, tg.WebhookSecret, logger))
	return router
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking/internal/api"
	"github.com/sanosuguru/go-event-booking/internal/api/handler"
	apimiddleware "github.com/sanosuguru/go-event-booking/internal/api/middleware"
	"github.com/sanosuguru/go-event-booking/internal/application"
	"github.com/sanosuguru/go-event-booking/internal/config"
	"github.com/sanosuguru/go-event-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-event-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-event-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-event-booking/internal/worker"
)

func main() {
	cfg := config.Load()
	defer logger.Sync()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, "migrations"); err != nil {
		logger.Fatal("マイグレーションエラー", zap.Error(err))
	}

	// Redis（接続できない場合はロック・キャッシュ・セッションなしで継続する）
	var (
		lockManager  *redisinfra.LockManager
		availability *redisinfra.AvailabilityCache
		sessionStore *redisinfra.SessionStore
	)
	redisClient := redisinfra.NewClient(&cfg.Redis)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisinfra.Ping(pingCtx, redisClient); err != nil {
		logger.Warn("Redisなしで起動します", zap.Error(err))
		redisClient = nil
	} else {
		lockManager = redisinfra.NewLockManager(redisClient)
		availability = redisinfra.NewAvailabilityCache(redisClient)
		sessionStore = redisinfra.NewSessionStore(redisClient, cfg.Session.TTL)
		defer redisClient.Close()
	}
	pingCancel()

	m := metrics.Init()

	// リポジトリ
	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	userRepo := postgres.NewUserRepository(db)
	txManager := postgres.NewTxManager(db)

	// サービス
	gateway := application.NewSimulatedGateway(cfg.Payment.GatewayDelay)
	eventService := application.NewEventService(eventRepo, availability)
	bookingService := application.NewBookingService(bookingRepo, eventRepo, txManager, lockManager, availability, m)
	paymentService := application.NewPaymentService(
		bookingRepo, eventRepo, txManager, gateway, availability, m,
		cfg.Payment.PendingTTL, cfg.Payment.ReleaseSeatsOnExpiry,
	)
	authService := application.NewAuthService(userRepo, sessionStore, cfg.Auth.AdminEmails)

	// ハンドラー
	eventHandler := handler.NewEventHandler(eventService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	authHandler := handler.NewAuthHandler(authService)
	healthHandler := handler.NewHealthHandler()

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	apimiddleware.SetupMiddleware(e)
	e.Use(apimiddleware.PrometheusMiddleware(m))

	e.GET("/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	e.POST("/bookings", bookingHandler.Create)
	e.GET("/bookings", bookingHandler.ListByEmail)
	e.GET("/bookings/:id", bookingHandler.GetByID)

	e.POST("/payments/process", paymentHandler.Process)

	e.GET("/events", eventHandler.List)
	e.GET("/events/:id", eventHandler.GetByID)
	e.GET("/events/slug/:slug", eventHandler.GetBySlug)
	e.GET("/events/:id/availability", eventHandler.GetAvailability)

	// 管理系ルートはRedisセッションのadmin権限が必要
	admin := e.Group("", apimiddleware.RequireAdmin(authService))
	admin.POST("/events", eventHandler.Create)
	admin.PUT("/events/:id", eventHandler.Update)
	admin.DELETE("/events/:id", eventHandler.Delete)

	e.POST("/auth/signup", authHandler.Signup)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/me", authHandler.Me, apimiddleware.SessionAuth(authService))

	// 放置決済スイーパー
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	sweeper := worker.NewPendingPaymentSweeper(paymentService, cfg.Payment.SweepInterval)
	go sweeper.Start(sweeperCtx)

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウン開始")

	sweeperCancel()
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("シャットダウン完了")
}

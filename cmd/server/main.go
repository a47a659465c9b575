package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"              // loads .env files in development
    "github.com/labstack/echo/v4"           // Echo web framework
    echomw "github.com/labstack/echo/v4/middleware" // Echo's bundled middleware (CORS, recover)
    "go.uber.org/zap"

    "github.com/arriendoya/booking-api/internal/config"
    "github.com/arriendoya/booking-api/internal/database"
    "github.com/arriendoya/booking-api/internal/gateway"
    "github.com/arriendoya/booking-api/internal/handler"
    "github.com/arriendoya/booking-api/internal/logger"
    "github.com/arriendoya/booking-api/internal/middleware"
    "github.com/arriendoya/booking-api/internal/queue"
    "github.com/arriendoya/booking-api/internal/repository"
    "github.com/arriendoya/booking-api/internal/router"
    "github.com/arriendoya/booking-api/internal/service"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()
    if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
        log.Fatalf("logger init: %v", err)
    }
    defer func() { _ = logger.L().Sync() }()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        logger.L().Fatal("database open failed", zap.Error(err))
    }
    defer db.Close()

    // Repositories.
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    properties := repository.NewPropertyRepo(db)
    reservations := repository.NewReservationRepo(db)
    payments := repository.NewPaymentRepo(db)
    commissions := repository.NewCommissionRepo(db)
    invoices := repository.NewInvoiceRepo(db)
    blocks := repository.NewBlockRepo(db)

    // Payment gateway client and orchestrator.
    mp := gateway.NewClient(cfg.MPBaseURL, cfg.MPAccessToken)
    paySvc := service.NewPaymentService(payments, reservations, properties, commissions, invoices, mp,
        service.PublishPaymentApproved,
        service.PaymentConfig{
            WebhookURL: cfg.WebhookURL,
            SuccessURL: cfg.SuccessURL,
            FailureURL: cfg.FailureURL,
            PendingURL: cfg.PendingURL,
        })

    // Background consumer for payment.approved events.  It reconnects on
    // its own; a broker outage never takes the API down.
    go func() {
        if err := queue.StartPaymentConsumer(); err != nil {
            logger.L().Warn("payment consumer stopped", zap.Error(err))
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
    e.Use(middleware.RequestID())
    e.Use(middleware.Metrics)

    // Redis-backed token bucket rate limiting.  A missing Redis degrades
    // to a pass-through limiter.
    rdb := config.NewRedisClient()
    if rdb == nil {
        logger.L().Warn("redis unavailable, rate limiting disabled")
    }
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e, cfg.MediaDir)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, blocks), cfg.JWTSecret)
    router.RegisterProperties(e, handler.NewPropertyHandler(cfg, properties), cfg.JWTSecret, blocks)
    router.RegisterReservations(e, handler.NewReservationHandler(reservations, properties), cfg.JWTSecret, blocks)
    router.RegisterPayments(e, handler.NewPaymentHandler(paySvc, payments), handler.NewCommissionHandler(commissions), cfg.JWTSecret, blocks)
    router.RegisterBlocks(e, handler.NewBlockHandler(blocks, users), cfg.JWTSecret)
    router.RegisterInvoices(e, handler.NewInvoiceHandler(invoices), cfg.JWTSecret, blocks)

    addr := ":" + cfg.Port
    logger.L().Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
    if err := e.Start(addr); err != nil {
        logger.L().Fatal("server stopped", zap.Error(err))
    }
}

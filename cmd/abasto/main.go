package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/abasto-pos/abasto-pos/internal/app"
	"github.com/abasto-pos/abasto-pos/internal/credits"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/notify"
	"github.com/abasto-pos/abasto-pos/internal/observability"
	"github.com/abasto-pos/abasto-pos/internal/platform/cache"
	"github.com/abasto-pos/abasto-pos/internal/platform/db"
	"github.com/abasto-pos/abasto-pos/internal/products"
	"github.com/abasto-pos/abasto-pos/internal/sales"
	"github.com/abasto-pos/abasto-pos/internal/shared"
	"github.com/abasto-pos/abasto-pos/internal/users"
	"github.com/abasto-pos/abasto-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	productService := products.NewService(products.NewRepository(dbpool))
	customerService := customers.NewService(customers.NewRepository(dbpool),
		customers.Defaults{StartingCreditScore: cfg.StartingCreditScore}, logger)

	var notifier sales.Notifier
	if cfg.NotificationsEnabled() {
		notifier = notify.NewWhatsAppNotifier(notify.Config{
			BaseURL:       cfg.WhatsAppBaseURL,
			Token:         cfg.WhatsAppToken,
			TemplateName:  cfg.WhatsAppTemplate,
			CountryPrefix: cfg.WhatsAppCountryPrefix,
			Timeout:       cfg.NotifyTimeout,
		}, logger)
	} else {
		logger.Info("whatsapp notifications disabled")
	}

	locker := shared.NewSaleLocker(redisClient, cfg.SaleLockTTL)
	saleService := sales.NewService(sales.NewRepository(dbpool), productService, customerService,
		notifier, locker, metrics, sales.Config{
			Installments:  cfg.Installments,
			NotifyTimeout: cfg.NotifyTimeout,
		}, logger)

	creditService := credits.NewService(customerService, saleService, logger)
	userService := users.NewService(users.NewRepository(dbpool))

	idempotency := shared.NewIdempotencyStore(dbpool)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SalesHandler:     sales.NewHandler(logger, saleService, idempotency),
		CustomersHandler: customers.NewHandler(logger, customerService, saleService),
		CreditsHandler:   credits.NewHandler(logger, creditService),
		ProductsHandler:  products.NewHandler(logger, productService),
		UsersHandler:     users.NewHandler(logger, userService),
		JobsHandler:      jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

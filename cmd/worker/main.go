package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/abasto-pos/abasto-pos/internal/app"
	"github.com/abasto-pos/abasto-pos/internal/customers"
	"github.com/abasto-pos/abasto-pos/internal/observability"
	"github.com/abasto-pos/abasto-pos/internal/platform/db"
	"github.com/abasto-pos/abasto-pos/internal/products"
	"github.com/abasto-pos/abasto-pos/internal/sales"
	"github.com/abasto-pos/abasto-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	productService := products.NewService(products.NewRepository(pool))
	customerService := customers.NewService(customers.NewRepository(pool),
		customers.Defaults{StartingCreditScore: cfg.StartingCreditScore}, logger)

	// The sweep only reads and rebalances; it records no payments and sends
	// no notices, so the worker runs without notifier and lock.
	saleService := sales.NewService(sales.NewRepository(pool), productService, customerService,
		nil, nil, metrics, sales.Config{Installments: cfg.Installments}, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{{
			Type:    jobs.TaskCreditOverdueSweep,
			Handler: jobs.NewOverdueSweepHandler(saleService, logger),
		}},
		Cron: []jobs.CronRegistration{{
			Spec: cfg.SweepCron,
			Task: jobs.NewOverdueSweepTask(),
		}},
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("sweep_cron", cfg.SweepCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

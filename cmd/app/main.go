package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pr-insights-service/internal/config"
	"pr-insights-service/internal/database"
	"pr-insights-service/internal/github"
	"pr-insights-service/internal/handler"
	"pr-insights-service/internal/reporting"
	"pr-insights-service/internal/repository"
	"pr-insights-service/internal/usecase"
	"pr-insights-service/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	// Логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Конфиг
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warnf(".env not found: %v", err)
	}

	// База данных (database/sql)
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	logger.Info("Database connected")

	// Репозитории
	memberRepo := repository.NewMemberRepository(db)
	prRepo := repository.NewPullRequestRepository(db)
	subRepo := repository.NewSubEventRepository(db)
	corrRepo := repository.NewCorrelationRepository(db)
	taskRepo := repository.NewSyncTaskRepository(db)

	// Клиент read API хоста
	hostClient := github.NewClient(cfg.GithubToken, cfg.GithubOwner, cfg.GithubRepo, cfg.GithubMaxPages, logger)

	// Use Cases
	metricsUC := usecase.NewMetricsUseCase(prRepo, subRepo, logger)
	ingestUC := usecase.NewIngestUseCase(prRepo, memberRepo, subRepo, taskRepo, logger)
	backfillUC := usecase.NewBackfillUseCase(prRepo, memberRepo, subRepo, hostClient, metricsUC, cfg.SubfetchTimeout, logger)
	timelineUC := usecase.NewTimelineUseCase(prRepo, subRepo)
	correlationUC := usecase.NewCorrelationUseCase(subRepo, corrRepo, logger)

	// Фоновая работа: очередь бэкфилла и периодический пересчет корреляций
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	reporter := reporting.NewLogReporter(logger)

	orchestrator := worker.NewOrchestrator(
		taskRepo, prRepo, backfillUC, reporter, logger,
		cfg.WorkerCount, cfg.WorkerPollInterval, cfg.BackoffBase, cfg.MaxRetries,
	)
	orchestrator.Start(workerCtx)

	scheduler := worker.NewCorrelationScheduler(prRepo, correlationUC, cfg.CorrelationCron, logger)
	if err := scheduler.Start(workerCtx); err != nil {
		logger.Fatalf("Correlation scheduler failed to start: %v", err)
	}

	// Echo + Handlers
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(handler.LoggingMiddleware(logger))

	apiHandler := handler.NewAPIHandler(ingestUC, prRepo, timelineUC, correlationUC, logger)
	apiHandler.RegisterRoutes(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Запуск сервера
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil {
			logger.Infof("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatalf("Shutdown failed: %v", err)
	}

	scheduler.Stop()
	stopWorkers()
	orchestrator.Wait()

	logger.Info("Server exited")
}

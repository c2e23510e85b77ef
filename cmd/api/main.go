package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/loan-reminders/internal/config"
	"github.com/Dan9191/loan-reminders/internal/handler"
	"github.com/Dan9191/loan-reminders/internal/integrations/cbr"
	"github.com/Dan9191/loan-reminders/internal/jobs"
	"github.com/Dan9191/loan-reminders/internal/reminder"
	"github.com/Dan9191/loan-reminders/internal/repository"
	"github.com/Dan9191/loan-reminders/internal/service"
	"github.com/Dan9191/loan-reminders/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	version, err := repository.Migrate(db)
	if err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Infof("Database schema at version %d", version)

	// Initialize layers
	repo := repository.NewRepository(db)
	cbrClient := cbr.NewCBRClient(cfg, logger)
	scheduler := reminder.NewScheduler(reminder.Config{
		LoanWindowDays:    cfg.LoanWindowDays,
		MonthlyWindowDays: cfg.MonthlyWindowDays,
		WeeklyWindowDays:  cfg.WeeklyWindowDays,
		PaidRetention:     cfg.PaidRetention,
	}, logger)
	svc := service.NewService(repo, cbrClient, scheduler, logger)
	h := handler.NewHandler(svc, cbrClient, logger)

	// Periodic jobs
	runner, err := jobs.NewRunner(cfg, svc, svc, repo, email.NewSender(cfg, logger), logger)
	if err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	if err := runner.Cleanup(context.Background()); err != nil {
		logger.Errorf("Initial paid mark cleanup failed: %v", err)
	}
	runner.Start()
	defer runner.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}

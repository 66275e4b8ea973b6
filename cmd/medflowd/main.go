package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"medflow-backend/config"
	"medflow-backend/internal/api"
	"medflow-backend/internal/db"
	"medflow-backend/internal/journal"
	"medflow-backend/internal/llm"
	"medflow-backend/internal/logs"
	"medflow-backend/internal/notification"
	"medflow-backend/internal/record"
	"medflow-backend/internal/report"
	"medflow-backend/internal/sensor"
	"medflow-backend/internal/shell"
	"medflow-backend/internal/supervisor"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	logger := logs.New(cfg.Logging)
	logger.Info("configuration loaded", "path", configPath)

	if cfg.LLM.APIKey == "" {
		logger.Warn("API_KEY is not set; reports will fall back to placeholder text")
	}

	reportLoc, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		logger.Warn("invalid report timezone, using local time", "timezone", cfg.Report.Timezone, "error", err)
		reportLoc = time.Local
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Now()
	sh := shell.New(
		record.Seed(cfg.Patient, "admission", now),
		cfg.Supervisor.Identity,
		shell.WithLogger(logger),
		shell.WithObservers(journal.NewRecorder(journal.NewGormStore(gormDB), logger)),
	)

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions, logger)
		pool.Start(ctx)
		sh.AddObserver(pool)
	} else {
		logger.Warn("VAPID keys are not configured; alert push notifications are disabled")
	}

	client := llm.NewOpenAIClient(cfg.LLM)
	gen := report.NewGenerator(client, reportLoc, cfg.LLM.Timeout, logger)
	desk := supervisor.NewDesk(ctx, sh, gen, logger)

	sensorSvc := sensor.NewService(cfg.Sensor, sh, logger)
	go sensorSvc.Run(ctx)

	handler := api.NewHandler(sh, desk, gormDB, webpushOptions, reportLoc, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server),
	}

	go func() {
		logger.Info("HTTP server starting", "port", cfg.Server.Port, "model", client.Model())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", "error", err)
	}
	cancel()

	// Pending reports resolve to their fallback once ctx is cancelled. Let
	// them reach the journal before exiting.
	drained := make(chan struct{})
	go func() {
		desk.Wait()
		sh.Close()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown deadline reached before the journal was flushed")
	}

	logger.Info("server gracefully stopped")
}

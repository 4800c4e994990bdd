package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio/internal/amqp"
	"studio/internal/auth"
	"studio/internal/backend"
	"studio/internal/cli"
	apphttp "studio/internal/http"
	"studio/internal/ledger"
	"studio/internal/mail"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend selected by configuration
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	store := result.Store
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	}()

	// Seed the allow-list so these usernames can register
	if err := store.EnsureAllowedUsers(ctx, cfg.AllowedUsers); err != nil {
		logger.Error("Failed to seed allowed users", "error", err)
		os.Exit(1)
	}

	// Mail delivery: direct SMTP or the AMQP outbox drained by studio-worker
	var mailer mail.Mailer
	switch cfg.MailDelivery {
	case "amqp":
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		mailer = mail.NewQueueSender(amqpClient)
		logger.Info("Mail delivery via AMQP outbox", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	default:
		mailer = mail.NewSMTPSender(cfg.MailServer, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailDefaultSender)
		logger.Info("Mail delivery via SMTP", "server", cfg.MailServer, "port", cfg.MailPort)
	}

	authSvc := auth.NewService(store, store, mailer)
	ledgerSvc := ledger.NewService(store)

	// Expired sessions are reaped in the background
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.DeleteExpiredSessions(ctx); err != nil {
					logger.Error("Session cleanup failed", "error", err)
				}
			}
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, authSvc, ledgerSvc, cfg.SessionSecret)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting studio server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

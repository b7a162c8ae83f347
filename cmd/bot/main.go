package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg_store_bot/internal/config"
	"tg_store_bot/internal/health"
	"tg_store_bot/internal/logging"
	"tg_store_bot/internal/store"
	"tg_store_bot/internal/telegram"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	bootstrapTimeout       = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	telegramStopTimeout    = 10 * time.Second
	httpShutdownTimeout    = 5 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and validate configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
	}).Info("configuration loaded")

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), mongoConnectTimeout)
	manager, err := store.NewManager(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	tables := store.NewTables(manager.Tables(), logger)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), bootstrapTimeout)
	settings, err := tables.Bootstrap(bootstrapCtx, cfg.BonusPercent, time.Now())
	cancelBootstrap()
	if err != nil {
		logger.WithError(err).Error("settings bootstrap error")
		fmt.Fprintf(os.Stderr, "settings bootstrap error: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logging.Fields{
		"event":         "settings_ready",
		"bonus_percent": settings.BonusPercent,
	}).Info("settings table ready")

	stats := store.NewStatsProvider(tables)

	tgClient, err := telegram.NewClient(cfg, tables, stats, logger)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	httpServer := health.NewServer(cfg.HTTPPort, manager, stats, tgClient.WebhookHandler(), logger)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telegramCtx, cancelTelegram := context.WithCancel(context.Background())
	tgDone := make(chan struct{})
	go func() {
		tgClient.Start(telegramCtx)
		close(tgDone)
	}()

	httpDone := make(chan struct{})
	go func() {
		if err := httpServer.ListenAndServe(); err != nil {
			logger.WithError(err).Error("http server error")
		}
		close(httpDone)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping")
	case <-tgDone:
		logger.WithField("event", "telegram_stopped_early").Warn("telegram client stopped before shutdown signal")
	case <-httpDone:
		logger.WithField("event", "http_stopped_early").Warn("http server stopped before shutdown signal")
	}

	cancelTelegram()

	waitCtx, cancelWait := context.WithTimeout(context.Background(), telegramStopTimeout)
	select {
	case <-tgDone:
	case <-waitCtx.Done():
		logger.WithField("event", "telegram_shutdown_timeout").Warn("timed out waiting for telegram client to stop")
	}
	cancelWait()

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), httpShutdownTimeout)
	if err := httpServer.Shutdown(httpCtx); err != nil {
		logger.WithError(err).Error("http shutdown error")
	}
	cancelHTTP()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := manager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

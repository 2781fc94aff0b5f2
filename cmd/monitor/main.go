package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"wb-order-monitor/internal/bot"
	"wb-order-monitor/internal/config"
	"wb-order-monitor/internal/health"
	"wb-order-monitor/internal/models"
	"wb-order-monitor/internal/monitor"
	"wb-order-monitor/internal/obs"
	"wb-order-monitor/internal/store"
	filestore "wb-order-monitor/internal/store/file"
	"wb-order-monitor/internal/store/sqlite"
	"wb-order-monitor/internal/wb"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.Pretty)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting Wildberries order monitor",
		zap.Int("poll_interval_sec", cfg.PollInterval),
		zap.Int("port", cfg.Port),
	)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	telegramBot, err := bot.New(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("failed to initialize Telegram bot", zap.Error(err))
	}
	logger.Info("Telegram bot authorized", zap.String("username", telegramBot.API.Self.UserName))

	client := wb.NewClient()
	handler := bot.NewHandler(telegramBot, st, client, logger)

	seedDefaultUser(cfg, st, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	mon := monitor.New(client, st, telegramBot, logger,
		time.Duration(cfg.PollInterval)*time.Second, reg)

	healthSrv := health.NewServer(cfg.Port, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("monitor stopped", zap.Error(err))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		botWorker(ctx, handler, cfg.PollingTimeout, logger)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("health server listening", zap.String("addr", healthSrv.Addr))
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(shCtx); err != nil {
		logger.Warn("health server shutdown", zap.Error(err))
	}
	telegramBot.API.StopReceivingUpdates()

	wg.Wait()
	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.DatabasePath != "" {
		logger.Info("using sqlite store", zap.String("path", cfg.DatabasePath))
		return sqlite.New(cfg.DatabasePath)
	}
	logger.Info("using file store", zap.String("path", cfg.DataFile))
	return filestore.New(cfg.DataFile, logger), nil
}

// seedDefaultUser bootstraps one monitored user from the environment, so a
// fresh deployment can run without any chat interaction. First run only: an
// existing record is never overwritten.
func seedDefaultUser(cfg *config.Config, st store.Store, logger *zap.Logger) {
	if cfg.WBAPIKey == "" || cfg.AdminChatID == 0 {
		return
	}
	if _, ok := st.GetUser(cfg.AdminChatID); ok {
		return
	}
	if _, err := st.GetOrCreate(cfg.AdminChatID); err != nil {
		logger.Warn("failed to create default user", zap.Error(err))
		return
	}
	if err := st.SetAPIKey(cfg.AdminChatID, cfg.WBAPIKey, models.NewOrderIDSet()); err != nil {
		logger.Warn("failed to seed default API key", zap.Error(err))
		return
	}
	if err := st.SetMonitoring(cfg.AdminChatID, true); err != nil {
		logger.Warn("failed to enable default monitoring", zap.Error(err))
		return
	}
	logger.Info("seeded default user from environment", zap.Int64("chat_id", cfg.AdminChatID))
}

func botWorker(ctx context.Context, handler *bot.Handler, timeout int, logger *zap.Logger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout

	updates := handler.Bot.API.GetUpdatesChan(u)
	logger.Info("bot is listening for updates")

	for {
		select {
		case <-ctx.Done():
			logger.Info("bot worker shutting down")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			_ = handler.HandleUpdate(ctx, update)
		}
	}
}

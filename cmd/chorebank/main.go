package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/ykarpov/chorebank/internal/api"
	"github.com/ykarpov/chorebank/internal/auth"
	"github.com/ykarpov/chorebank/internal/config"
	"github.com/ykarpov/chorebank/internal/notify"
	"github.com/ykarpov/chorebank/internal/notify/telegram"
	"github.com/ykarpov/chorebank/internal/service"
	"github.com/ykarpov/chorebank/internal/sprint"
	"github.com/ykarpov/chorebank/internal/storage/sqlite"
	"github.com/ykarpov/chorebank/internal/tokens"
	"github.com/ykarpov/chorebank/pkg/logging"
)

func main() {
	logging.Setup()
	logger := slog.Default()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("storage initialized", "database", cfg.DBPath)

	var notifier notify.Notifier = notify.Discard{}
	if cfg.BotToken != "" {
		notifier = telegram.New(cfg.BotToken)
	} else {
		logger.Warn("no bot token configured, messages will be discarded")
	}

	var codes tokens.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		codes = tokens.NewRedisStore(client, cfg.CodeTTL)
		logger.Info("confirmation codes in redis", "addr", cfg.RedisAddr)
	} else {
		codes = tokens.NewMemoryStore(cfg.CodeTTL)
	}

	invites := auth.NewInviteManager(cfg.InviteSecret, cfg.InviteTTL)
	groups := service.NewGroupService(store, invites, codes, logger)

	settler := sprint.NewSettler(store, notifier, logger)
	scheduler, err := sprint.NewScheduler(settler, cfg.SettleAt, logger)
	if err != nil {
		logger.Error("failed to configure scheduler", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(ctx)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(store, groups, logger).Handler(),
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	logger.Info("ops server starting", "address", cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"genmarket-bot/internal/admin"
	"genmarket-bot/internal/config"
	"genmarket-bot/internal/database"
	"genmarket-bot/internal/generator"
	"genmarket-bot/internal/repository"
	"genmarket-bot/internal/service"
	"genmarket-bot/internal/session"
	"genmarket-bot/internal/storage"
	"genmarket-bot/internal/telegram"
	"genmarket-bot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	locks := service.NewAccountLocks()
	ledgerService := service.NewLedgerService(cfg, logr, userRepo, orderRepo, rewardRepo)
	rewardService := service.NewRewardService(cfg, logr, userRepo, rewardRepo, locks)
	spendService := service.NewSpendService(logr, userRepo, orderRepo, locks)

	genClient := generator.NewClient(cfg, logr)

	var uploader service.Uploader
	if cfg.S3Bucket != "" {
		up, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		uploader = up
	}

	generationService := service.NewGenerationService(cfg, logr, spendService, genClient, uploader)

	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		sessions = session.NewRedisStore(client)
	} else {
		sessions = session.NewMemoryStore()
	}

	bot := telegram.NewBot(cfg, botAPI, logr, ledgerService, rewardService, generationService, sessions)

	adminServer := admin.NewServer(cfg.AdminListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr, ledgerService, botAPI, cfg.BroadcastPerSecond)
	go func() {
		if err := adminServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("admin server stopped", "err", err)
		}
	}()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}

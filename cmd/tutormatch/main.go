package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tutormatch/internal/app"
	"tutormatch/internal/config"
	"tutormatch/internal/notify"
	"tutormatch/internal/repository"
	"tutormatch/internal/repository/memory"
	"tutormatch/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		requestStore service.RequestStore
		userStore    service.UserStore
		subjectStore service.SubjectStore
	)

	if cfg.DBDSN == "" {
		logger.Warn("DB_DSN not set, using the in-memory store; data will not survive a restart")
		mem := memory.NewStore()
		requestStore = mem.Requests()
		userStore = mem.Users()
		subjectStore = mem.Subjects()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			logger.Fatal("Failed to create connection pool", zap.Error(err))
		}
		defer pool.Close()

		migrator, err := app.NewMigrator(pool, "migrations")
		if err != nil {
			logger.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := migrator.Run(ctx); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		migrator.Close()

		requestStore = repository.NewRequestRepository(pool)
		userStore = repository.NewUserRepository(pool)
		subjectStore = repository.NewSubjectRepository(pool)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram notifier", zap.Error(err))
		}
		notifier = tg
	}

	requestService := service.NewRequestService(requestStore, userStore, subjectStore, notifier, logger)

	archiver := app.NewArchiver(requestService, cfg.ArchiveInterval, logger)
	archiver.Start(ctx)

	logger.Info("tutormatch started",
		zap.String("environment", cfg.Environment),
		zap.Bool("persistent", cfg.DBDSN != ""),
	)

	<-ctx.Done()
	archiver.Stop()
	logger.Info("Shutting down")
}

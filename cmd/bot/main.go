package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"leave-balance-bot/internal/config"
	"leave-balance-bot/internal/handler"
	"leave-balance-bot/internal/repository"
	"leave-balance-bot/internal/scheduler"
	"leave-balance-bot/internal/service"
	"leave-balance-bot/pkg/telegram"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()
	logrus.Info("Config initialized...")

	// Инициализируем SQLite базу данных
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
	})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	// Включаем поддержку внешних ключей (требуется для SQLite)
	_, err = sqlDB.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		logrus.Infof("Warning: Failed to enable foreign keys: %v", err)
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create user repository")
	}

	leaveSessionRepo, err := repository.NewGormLeaveSessionRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create leave session repository")
	}

	extraWorkRepo, err := repository.NewGormExtraWorkSessionRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create extra work session repository")
	}

	summaryRepo, err := repository.NewGormDailySummaryRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create daily summary repository")
	}

	requestRepo, err := repository.NewGormLeaveRequestRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create leave request repository")
	}

	// Сервисы: сводка - общая зависимость сессионных сервисов
	userService := service.NewUserService(userRepo)
	summaryService := service.NewDailySummaryService(summaryRepo, leaveSessionRepo, extraWorkRepo, cfg.CompensationCapMinutes)
	leaveService := service.NewLeaveSessionService(leaveSessionRepo, summaryService, cfg.CompensationCapMinutes)
	workService := service.NewExtraWorkService(extraWorkRepo, summaryService)
	requestService := service.NewLeaveRequestService(requestRepo, leaveService, summaryService)

	// Инициализируем администратора из конфига
	if err := userService.InitializeAdmin(cfg.BaseAdminChatID); err != nil {
		logrus.Infof("Warning: Failed to initialize admin: %v", err)
	} else if cfg.BaseAdminChatID != 0 {
		logrus.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	// Создаем клиент Telegram
	client, err := telegram.NewClient(cfg.TelegramToken)
	if err != nil {
		logrus.Fatal("Failed to create Telegram client:", err)
	}

	logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

	reconciler := service.NewReconcilerService(
		leaveSessionRepo,
		extraWorkRepo,
		summaryRepo,
		requestRepo,
		leaveService,
		client,
		cfg.CompensationCapMinutes,
		cfg.FinalWarningLeadMinutes,
		cfg.ReminderIntervalMinutes,
		cfg.ApprovalChatID,
	)

	// Сверка после рестарта: незавершенное состояние только читается
	if err := reconciler.RecoverOnStartup(time.Now()); err != nil {
		logrus.WithError(err).Error("Startup recovery scan failed")
	}

	sched := scheduler.New(reconciler, time.Duration(cfg.SchedulerTickSeconds)*time.Second)
	sched.Start()

	botHandler := handler.NewHandler(
		client,
		userService,
		leaveService,
		workService,
		summaryService,
		requestService,
		cfg,
	)

	// Настраиваем канал обновлений
	updates := client.Bot.GetUpdatesChan(client.UpdateConfig)

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем обработку сообщений
	go botHandler.HandleUpdates(updates)

	logrus.Info("Bot started. Press Ctrl+C to stop.")
	<-stop

	sched.Stop()

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Bot stopped gracefully")
}

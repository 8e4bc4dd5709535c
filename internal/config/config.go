package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken   string
	ApprovalChatID  int64
	BaseAdminChatID int64
	AdminPassword   string
	DatabaseURL     string

	// Лимит компенсации: максимум минут отлучки в день, подлежащих
	// отработке; все сверх лимита - полдня отпуска. По умолчанию 2.5 часа.
	CompensationCapMinutes int

	// Интервал напоминаний о просроченной отлучке
	ReminderIntervalMinutes int

	// За сколько минут до лимита отправлять последнее предупреждение
	FinalWarningLeadMinutes int

	// Период тика планировщика сверки
	SchedulerTickSeconds int
}

var instance *BotConfig
var once sync.Once

func GetBotConfig() *BotConfig {
	once.Do(func() {
		instance = &BotConfig{}

		if err := godotenv.Load(); err != nil {
			logrus.Infof("No .env file loaded: %s", err.Error())
		}

		instance.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
		if instance.TelegramToken == "" {
			logrus.Fatal("could not get bot token")
		}

		instance.ApprovalChatID = getEnvAsInt("APPROVAL_CHAT_ID", 0)
		if instance.ApprovalChatID == 0 {
			logrus.Fatal("could not get approval chat id")
		}

		instance.BaseAdminChatID = getEnvAsInt("BASE_ADMIN_CHAT_ID", 0)

		instance.AdminPassword = getEnv("ADMIN_PASSWORD", "")
		if instance.AdminPassword == "" {
			logrus.Fatal("could not get admin password")
		}

		instance.DatabaseURL = getEnv("DATABASE_URL", "")
		if instance.DatabaseURL == "" {
			logrus.Fatal("could not get db url")
		}

		instance.CompensationCapMinutes = int(getEnvAsInt("COMPENSATION_CAP_MINUTES", 150))
		instance.ReminderIntervalMinutes = int(getEnvAsInt("REMINDER_INTERVAL_MINUTES", 30))
		instance.FinalWarningLeadMinutes = int(getEnvAsInt("FINAL_WARNING_LEAD_MINUTES", 6))
		instance.SchedulerTickSeconds = int(getEnvAsInt("SCHEDULER_TICK_SECONDS", 60))
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return int64(val)
	}

	return defaultVal
}

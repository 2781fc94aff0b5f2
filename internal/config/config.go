package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramBotToken string
	WBAPIKey         string
	AdminChatID      int64
	DataFile         string
	DatabasePath     string
	PollInterval     int
	PollingTimeout   int
	Port             int
	LogLevel         string
	Pretty           bool
}

func Load() (*Config, error) {
	// .env is optional; on hosting platforms everything comes from the
	// environment directly.
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	pollInterval, err := strconv.Atoi(getEnvWithDefault("POLL_INTERVAL", "600"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %v", err)
	}

	port, err := strconv.Atoi(getEnvWithDefault("PORT", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %v", err)
	}

	var adminChatID int64
	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		adminChatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %v", err)
		}
	}

	return &Config{
		TelegramBotToken: token,
		WBAPIKey:         os.Getenv("WB_API_KEY"),
		AdminChatID:      adminChatID,
		DataFile:         getEnvWithDefault("DATA_FILE", "bot_data.json"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
		PollInterval:     pollInterval,
		PollingTimeout:   60, // Default Telegram long-poll timeout
		Port:             port,
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		Pretty:           os.Getenv("LOG_PRETTY") == "true",
	}, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

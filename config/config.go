package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort           string
	LogLevel             string
	AutoDrawEnabled      bool
	AutoDrawIntervalMins string
	AutoDrawRefund       bool
}

// GetAutoDrawInterval returns the draw scheduler interval or the default
func (c *Config) GetAutoDrawInterval() time.Duration {
	if c.AutoDrawIntervalMins == "" {
		return 5 * time.Minute
	}

	mins, err := strconv.Atoi(c.AutoDrawIntervalMins)
	if err != nil || mins < 1 {
		logrus.Warnf("Invalid AUTO_DRAW_INTERVAL_MINUTES value: %s, using default 5 minutes", c.AutoDrawIntervalMins)
		return 5 * time.Minute
	}

	return time.Duration(mins) * time.Minute
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		AutoDrawEnabled:      getEnv("AUTO_DRAW", "true") == "true",
		AutoDrawIntervalMins: getEnv("AUTO_DRAW_INTERVAL_MINUTES", "5"),
		AutoDrawRefund:       getEnv("AUTO_DRAW_REFUND", "true") == "true",
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

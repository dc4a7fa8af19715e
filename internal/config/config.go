package config

import (
	"os"
	"strconv"
	"time"

	"taskbot/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string

	LogLevel string
	LogJSON  bool

	// Reminder scheduler
	ReminderStart    string        // time-of-day "HH:MM:SS" the daily window opens
	ReminderDebounce time.Duration // min spacing between notification passes
	DueWindow        time.Duration // how far ahead a deadline counts as due soon
	SchedulerTick    time.Duration // poll interval of the scheduler loop

	// Command flood control (optional, disabled without REDIS_ADDR)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CommandLimit  int
	CommandWindow time.Duration
}

const defaultReminderStart = "09:00:00"

// Load reads configuration from the environment, after loading a .env file if
// one is present. Missing required values are fatal; everything else falls
// back to a default.
func Load() *Config {
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	reminderStart := os.Getenv("DAILY_REMINDER_START")
	if reminderStart == "" {
		reminderStart = defaultReminderStart
	} else if _, err := time.Parse("15:04:05", reminderStart); err != nil {
		logger.Warn("invalid DAILY_REMINDER_START, using default",
			"value", reminderStart, "default", defaultReminderStart)
		reminderStart = defaultReminderStart
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			redisDB = n
		}
	}

	commandLimit := 20
	if v := os.Getenv("COMMAND_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			commandLimit = n
		}
	}

	commandWindow := time.Minute
	if v := os.Getenv("COMMAND_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			commandWindow = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		BotToken:    botToken,

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_JSON") == "true",

		ReminderStart:    reminderStart,
		ReminderDebounce: envDuration("REMINDER_DEBOUNCE", 10*time.Minute),
		DueWindow:        envDuration("DUE_WINDOW", 24*time.Hour),
		SchedulerTick:    envDuration("SCHEDULER_TICK", 10*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		CommandLimit:  commandLimit,
		CommandWindow: commandWindow,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

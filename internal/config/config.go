package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string

	// Central bank key rate, used for loans stored without a rate
	CBRURL        string
	KeyRateMargin float64

	// SMTP settings for reminder digests
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string

	// Cron specs for periodic jobs
	CleanupSchedule string
	DigestSchedule  string

	// Reminder windows in days and how long paid marks are kept
	LoanWindowDays    int
	MonthlyWindowDays int
	WeeklyWindowDays  int
	PaidRetention     time.Duration
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=reminders sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		CBRURL:          getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "reminders@localhost"),
		CleanupSchedule: getEnv("CLEANUP_SCHEDULE", "@every 30m"),
		DigestSchedule:  getEnv("DIGEST_SCHEDULE", "0 8 * * *"),
	}

	var err error
	if cfg.KeyRateMargin, err = getEnvFloat("KEY_RATE_MARGIN", 5.0); err != nil {
		return nil, err
	}
	if cfg.LoanWindowDays, err = getEnvInt("LOAN_WINDOW_DAYS", 8); err != nil {
		return nil, err
	}
	if cfg.MonthlyWindowDays, err = getEnvInt("MONTHLY_WINDOW_DAYS", 8); err != nil {
		return nil, err
	}
	if cfg.WeeklyWindowDays, err = getEnvInt("WEEKLY_WINDOW_DAYS", 2); err != nil {
		return nil, err
	}
	if cfg.PaidRetention, err = getEnvDuration("PAID_RETENTION", 48*time.Hour); err != nil {
		return nil, err
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	for key, spec := range map[string]string{"CLEANUP_SCHEDULE": cfg.CleanupSchedule, "DIGEST_SCHEDULE": cfg.DigestSchedule} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, spec, err)
		}
	}
	if cfg.LoanWindowDays < 0 || cfg.MonthlyWindowDays < 0 || cfg.WeeklyWindowDays < 0 {
		return nil, fmt.Errorf("reminder windows must not be negative")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func Load() App {
	_ = godotenv.Load()

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		Env:         getenv("APP_ENV", "dev"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
		NotifyTopic:  getenv("NOTIFY_TOPIC", "lending.notifications"),
		NotifyGroup:  getenv("NOTIFY_GROUP", "lending-mailer"),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		MailUser:      os.Getenv("MAIL_USER"),
		MailPassword:  os.Getenv("MAIL_PASSWORD"),
		MailFromName:  getenv("MAIL_FROM_NAME", "SE LAB"),
		MailFromEmail: os.Getenv("MAIL_FROM_EMAIL"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),

		FreeCategoryID: getint64("FREE_CATEGORY_ID", 0),

		ReminderInterval:  getdur("REMINDER_INTERVAL", 24*time.Hour),
		ReminderLookahead: getdur("REMINDER_LOOKAHEAD", 72*time.Hour),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}

func getint64(k string, def int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("bad int env, using default", "key", k, "value", v)
		return def
	}
	return i
}

func getdur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("bad duration env, using default", "key", k, "value", v)
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

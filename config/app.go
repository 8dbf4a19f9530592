package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`

	RedisAddr    string   `env:"REDIS_ADDR"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	NotifyTopic  string   `env:"NOTIFY_TOPIC" default:"lending.notifications"`
	NotifyGroup  string   `env:"NOTIFY_GROUP" default:"lending-mailer"`

	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      string `env:"SMTP_PORT" default:"587"`
	MailUser      string `env:"MAIL_USER"`
	MailPassword  string `env:"MAIL_PASSWORD"`
	MailFromName  string `env:"MAIL_FROM_NAME" default:"SE LAB"`
	MailFromEmail string `env:"MAIL_FROM_EMAIL"`
	AdminEmail    string `env:"ADMIN_EMAIL"`

	// Category whose items are lent at no cost and need no return date.
	FreeCategoryID int64 `env:"FREE_CATEGORY_ID"`

	ReminderInterval  time.Duration `env:"REMINDER_INTERVAL" default:"24h"`
	ReminderLookahead time.Duration `env:"REMINDER_LOOKAHEAD" default:"72h"`
}

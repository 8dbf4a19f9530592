package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/6431503106/brselab/app/echoServer"
	authctrl "github.com/6431503106/brselab/app/echoServer/controller/auth"
	categoryctrl "github.com/6431503106/brselab/app/echoServer/controller/category"
	generalctrl "github.com/6431503106/brselab/app/echoServer/controller/general"
	orderctrl "github.com/6431503106/brselab/app/echoServer/controller/order"
	productctrl "github.com/6431503106/brselab/app/echoServer/controller/product"
	"github.com/6431503106/brselab/app/echoServer/validation"
	"github.com/6431503106/brselab/config"
	categoryrepo "github.com/6431503106/brselab/repository/category"
	contactrepo "github.com/6431503106/brselab/repository/contact"
	orderrepo "github.com/6431503106/brselab/repository/order"
	productrepo "github.com/6431503106/brselab/repository/product"
	userrepo "github.com/6431503106/brselab/repository/user"
	authsvc "github.com/6431503106/brselab/service/auth"
	categorysvc "github.com/6431503106/brselab/service/category"
	generalsvc "github.com/6431503106/brselab/service/general"
	"github.com/6431503106/brselab/service/notify"
	ordersvc "github.com/6431503106/brselab/service/order"
	productsvc "github.com/6431503106/brselab/service/product"
	"github.com/6431503106/brselab/util/database"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Bootstrap(ctx); err != nil {
		log.Error("database bootstrap", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := userrepo.New(db)
	categoryRepo := categoryrepo.New(db)
	orderRepo := orderrepo.New(db)
	contactRepo := contactrepo.New(db)

	productRepo := productrepo.New(db)
	var stockCache ordersvc.StockCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		cached := productrepo.NewCached(productRepo, rdb, log)
		productRepo = cached
		stockCache = cached
	}

	// Notifications: producer feeds the topic, consumer mails.
	// The publisher outlives ctx; Close drains it at the end of shutdown.
	pub := notify.NewPublisher(cfg.KafkaBrokers, cfg.NotifyTopic, 1024, log)
	pub.Start(context.Background())

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser,
		cfg.MailPassword, cfg.MailFromName, cfg.MailFromEmail)
	consumer := notify.NewConsumer(cfg.KafkaBrokers, cfg.NotifyGroup, cfg.NotifyTopic, mailer, log)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error("notify consumer stopped", "err", err)
		}
	}()

	// Services
	authSvc := authsvc.New(userRepo, cfg.JWTSecret)
	categorySvc := categorysvc.New(categoryRepo)
	productSvc := productsvc.New(productRepo, categoryRepo)
	orderSvc := ordersvc.New(orderRepo, productRepo, pub, stockCache, log, cfg.FreeCategoryID)
	generalSvc := generalsvc.New(contactRepo, pub, log, cfg.AdminEmail)

	// Return-date reminder sweep
	sweeper := ordersvc.NewSweeper(orderRepo, pub, log, cfg.ReminderLookahead)
	job := ordersvc.NewJob(sweeper, cfg.ReminderInterval, log)
	job.Start(ctx)

	val := validation.New()
	e := echo.New()
	e.HideBanner = true
	e.Validator = val
	echoServer.RegisterMiddlewares(e)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	echoServer.Register(e, echoServer.C{
		Auth:     &authctrl.Controller{Svc: authSvc, V: val.Instance(), Log: log},
		Product:  &productctrl.Controller{Svc: productSvc, V: val.Instance(), Log: log},
		Category: &categoryctrl.Controller{Svc: categorySvc, V: val.Instance(), Log: log},
		Order:    &orderctrl.Controller{Svc: orderSvc, V: val.Instance(), Log: log},
		General:  &generalctrl.Controller{Svc: generalSvc, V: val.Instance(), Log: log},

		JWTSecret: cfg.JWTSecret,
	})

	go func() {
		log.Info("http listening", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}

	job.Stop()

	// Drain buffered notifications before cancelling the consumer.
	pub.Close()
	pub.WaitClosed()
	cancel()
}

func newLogger(cfg config.App) *slog.Logger {
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmaulana/rh-tracker-api/internal/config"
	"github.com/rmaulana/rh-tracker-api/internal/repository/postgres"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/router"
	authservice "github.com/rmaulana/rh-tracker-api/internal/service/auth"
	notificationservice "github.com/rmaulana/rh-tracker-api/internal/service/notification"
	productservice "github.com/rmaulana/rh-tracker-api/internal/service/product"
	"github.com/rmaulana/rh-tracker-api/internal/service/sweep"
	"github.com/rmaulana/rh-tracker-api/internal/whatsapp"
	"github.com/rmaulana/rh-tracker-api/pkg/auth"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/messaging"
	redisbroker "github.com/rmaulana/rh-tracker-api/pkg/messaging/redis"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

func main() {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load config")
	}

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal(err, "failed to resolve timezone")
	}
	cal := rh.NewCalendar(loc)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatal(err, "failed to migrate schema")
	}

	// Redis only backs the dashboard toast channel; the API runs without it.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.ZL)
		if err != nil {
			log.Warn("redis unavailable, toasts disabled", "error", err.Error())
			broker = nil
		} else {
			defer broker.Close()
		}
	}

	m := metrics.New("rh_tracker")

	base := postgres.NewBaseRepository(db)
	productRepo := postgres.NewProductRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	userRepo := postgres.NewUserRepository(base)

	tokens := auth.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	sender := whatsapp.NewClient(cfg.WhatsApp, log)

	notifier := notificationservice.NewService(notificationRepo, productRepo, userRepo, sender, broker, cal, log, m)
	sweeper := sweep.NewService(productRepo, notifier, broker, cal, log, m)
	products := productservice.NewService(productRepo, userRepo, notifier, broker, cal, log, m)
	authSvc := authservice.NewService(userRepo, tokens, log)

	engine := router.Setup(&router.Dependencies{
		Config:           cfg,
		DB:               db,
		Tokens:           tokens,
		Calendar:         cal,
		AuthService:      authSvc,
		ProductService:   products,
		Notifier:         notifier,
		Sweeper:          sweeper,
		ProductRepo:      productRepo,
		NotificationRepo: notificationRepo,
		Logger:           log,
	})

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        engine,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}

// The cron binary runs the periodic RH sweep as a standalone process, for
// deployments where the API is not fronted by an external scheduler.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/rmaulana/rh-tracker-api/internal/config"
	"github.com/rmaulana/rh-tracker-api/internal/email"
	"github.com/rmaulana/rh-tracker-api/internal/repository/postgres"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	notificationservice "github.com/rmaulana/rh-tracker-api/internal/service/notification"
	"github.com/rmaulana/rh-tracker-api/internal/service/sweep"
	"github.com/rmaulana/rh-tracker-api/internal/whatsapp"
	"github.com/rmaulana/rh-tracker-api/internal/worker"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

// cronConfig is environment-only; the cron binary ships without a config
// file.
type cronConfig struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"rh_tracker"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	WhatsAppAPIURL   string        `envconfig:"WHATSAPP_API_URL"`
	WhatsAppToken    string        `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	WhatsAppTimeout  time.Duration `envconfig:"WHATSAPP_TIMEOUT" default:"10s"`
	WhatsAppSimulate bool          `envconfig:"WHATSAPP_SIMULATE" default:"false"`

	Timezone      string        `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	HealthPort    string        `envconfig:"HEALTH_PORT" default:"8081"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`
	SMTPReportTo string `envconfig:"SMTP_REPORT_TO"`
}

func main() {
	log := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	var cfg cronConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal(err, "failed to load environment config")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal(err, "invalid timezone")
	}
	cal := rh.NewCalendar(loc)

	db, err := postgres.NewDB(config.DatabaseConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("rh_tracker_cron")

	base := postgres.NewBaseRepository(db)
	productRepo := postgres.NewProductRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	userRepo := postgres.NewUserRepository(base)

	sender := whatsapp.NewClient(config.WhatsAppConfig{
		APIURL:      cfg.WhatsAppAPIURL,
		AccessToken: cfg.WhatsAppToken,
		Timeout:     cfg.WhatsAppTimeout,
		Simulate:    cfg.WhatsAppSimulate,
	}, log)

	notifier := notificationservice.NewService(notificationRepo, productRepo, userRepo, sender, nil, cal, log, m)
	sweeper := sweep.NewService(productRepo, notifier, nil, cal, log, m)

	reporter := email.NewService(config.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		ReportTo: cfg.SMTPReportTo,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Health endpoint on a side port so orchestrators can probe the worker.
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		if err := http.ListenAndServe(":"+cfg.HealthPort, mux); err != nil && err != http.ErrServerClosed {
			log.Error(err, "health server failed")
		}
	}()

	worker.NewSweeper(sweeper, reporter, cfg.SweepInterval, log).Run(ctx)
}

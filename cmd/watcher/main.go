package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ozvisa/slotwatch/internal/artifact"
	"github.com/ozvisa/slotwatch/internal/config"
	"github.com/ozvisa/slotwatch/internal/notify"
	"github.com/ozvisa/slotwatch/internal/observability/metrics"
	"github.com/ozvisa/slotwatch/internal/ops"
	"github.com/ozvisa/slotwatch/internal/prefs"
	"github.com/ozvisa/slotwatch/internal/scraper"
	"github.com/ozvisa/slotwatch/internal/service"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.BookingBaseURL == "" {
		logger.Error("watcher requires BOOKING_BASE_URL")
		os.Exit(1)
	}

	queries, err := cfg.SearchQueries()
	if err != nil {
		logger.Error("invalid search queries", "error", err)
		os.Exit(1)
	}
	if len(queries) == 0 {
		logger.Error("watcher requires at least one entry in SEARCH_QUERIES_JSON")
		os.Exit(1)
	}

	// Unreadable preferences are fatal at startup; per-cycle reload failures
	// later only abort the affected cycle.
	if _, err := prefs.Load(cfg.PreferencesPath); err != nil {
		logger.Error("failed to load notification preferences", "path", cfg.PreferencesPath, "error", err)
		os.Exit(1)
	}

	sender := buildEmailSender(ctx, cfg, logger)
	mailer := notify.NewAlertMailer(sender, cfg.BookingBaseURL, logger.WithComponent("notify"))

	crawler := scraper.NewSiteCrawler(cfg.BookingBaseURL,
		scraper.WithTimeout(cfg.ScrapeTimeout),
		scraper.WithLogger(logger.WithComponent("scraper")),
	)

	store := artifact.NewStore(cfg.LatestResultsPath, cfg.NotificationResultPath, logger.WithComponent("artifact"))

	reg := prometheus.NewRegistry()
	m := metrics.NewWatcherMetrics(reg)

	svc, err := service.New(service.Config{
		Interval:          cfg.CheckInterval,
		PreferencesPath:   cfg.PreferencesPath,
		Queries:           queries,
		MaxScrapeAttempts: cfg.MaxScrapeAttempts,
		RetryBackoffStep:  cfg.RetryBackoffStep,
	}, crawler, mailer, store, m, logger.WithComponent("service"))
	if err != nil {
		logger.Error("invalid service configuration", "error", err)
		os.Exit(1)
	}

	opsSrv := &http.Server{
		Addr:    cfg.OpsAddr,
		Handler: ops.NewRouter(svc, reg, logger.WithComponent("ops")),
	}
	go func() {
		logger.Info("ops server listening", "addr", cfg.OpsAddr)
		if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", "error", err)
		}
	}()

	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start service", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("watcher shutting down")

	svc.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = opsSrv.Shutdown(shutdownCtx)
}

// buildEmailSender selects the transport from config, falling back to the
// stub when the chosen provider cannot be constructed.
func buildEmailSender(ctx context.Context, cfg *config.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config, falling back to stub sender", "error", err)
			break
		}
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			logger.Info("email via SES", "from", cfg.SESFromEmail)
			return sender
		}
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			logger.Info("email via SendGrid", "from", cfg.SendGridFromEmail)
			return sender
		}
		logger.Warn("sendgrid selected but SENDGRID_API_KEY empty, falling back to stub sender")
	}
	return notify.NewStubEmailSender(logger)
}

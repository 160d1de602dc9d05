// Package service owns the scrape-classify-persist-notify loop: a single
// repeating timer drives sequential cycles, with retry and backoff around
// the scrape step and per-step failure isolation inside a cycle.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ozvisa/slotwatch/internal/artifact"
	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/notification"
	"github.com/ozvisa/slotwatch/internal/observability/metrics"
	"github.com/ozvisa/slotwatch/internal/prefs"
	"github.com/ozvisa/slotwatch/internal/scraper"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

const (
	defaultInterval  = 5 * time.Minute
	minInterval      = time.Minute
	defaultAttempts  = 3
	defaultRetryStep = 2 * time.Second
)

// AlertDispatcher sends the cycle's alert email.
type AlertDispatcher interface {
	SendAlert(ctx context.Context, res notification.Result, recipients []string) error
}

// Config holds the service loop settings.
type Config struct {
	// Interval between check cycles. Default 5 minutes, minimum 1 minute.
	Interval time.Duration
	// PreferencesPath is the notification-preferences JSON file, reloaded
	// each cycle.
	PreferencesPath string
	// Queries are the location searches run each cycle.
	Queries []availability.SearchQuery
	// MaxScrapeAttempts per cycle. Default 3.
	MaxScrapeAttempts int
	// RetryBackoffStep scales the backoff between scrape attempts:
	// attempt N sleeps N times this step. Default 2s.
	RetryBackoffStep time.Duration
}

// Service runs the check loop. Stopped until Start; Start while running and
// Stop while stopped are no-op warnings.
type Service struct {
	cfg     Config
	crawler scraper.Crawler
	mailer  AlertDispatcher
	store   *artifact.Store
	metrics *metrics.WatcherMetrics
	logger  *logging.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cron      *cron.Cron
	entryID   cron.EntryID
	cancel    context.CancelFunc
}

// Status is a point-in-time read of the service state. No side effects.
type Status struct {
	Running     bool      `json:"running"`
	StartedAt   time.Time `json:"startedAt,omitzero"`
	Uptime      string    `json:"uptime,omitempty"`
	Interval    string    `json:"interval"`
	NextCheckAt time.Time `json:"nextCheckAt,omitzero"`
}

// New creates a service. The interval is validated here, before Start, so a
// misconfigured deployment fails fast.
func New(cfg Config, crawler scraper.Crawler, mailer AlertDispatcher, store *artifact.Store, m *metrics.WatcherMetrics, logger *logging.Logger) (*Service, error) {
	if crawler == nil {
		return nil, fmt.Errorf("service: crawler is required")
	}
	if store == nil {
		return nil, fmt.Errorf("service: artifact store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Interval < minInterval {
		return nil, fmt.Errorf("service: interval %s below minimum %s", cfg.Interval, minInterval)
	}
	if cfg.MaxScrapeAttempts <= 0 {
		cfg.MaxScrapeAttempts = defaultAttempts
	}
	if cfg.RetryBackoffStep <= 0 {
		cfg.RetryBackoffStep = defaultRetryStep
	}
	return &Service{
		cfg:     cfg,
		crawler: crawler,
		mailer:  mailer,
		store:   store,
		metrics: m,
		logger:  logger,
	}, nil
}

// Start runs one cycle immediately, then arms the repeating timer. The
// SkipIfStillRunning chain guarantees no two cycles ever run concurrently
// against the artifact files: a tick firing mid-cycle is skipped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("start called while service already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogAdapter{s.logger})))
	id, err := c.AddFunc(fmt.Sprintf("@every %s", s.cfg.Interval), func() {
		s.runCycle(runCtx)
	})
	if err != nil {
		cancel()
		s.mu.Unlock()
		return fmt.Errorf("service: schedule: %w", err)
	}

	s.cron = c
	s.entryID = id
	s.cancel = cancel
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("service started", "interval", s.cfg.Interval.String(), "queries", len(s.cfg.Queries))

	// First cycle is synchronous so callers observe a populated artifact set
	// once Start returns.
	s.runCycle(runCtx)

	s.mu.Lock()
	if s.running {
		s.cron.Start()
	}
	s.mu.Unlock()
	return nil
}

// Stop cancels the timer and any in-progress retry sleep. It does not wait
// for an in-flight cycle to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.logger.Warn("stop called while service not running")
		return
	}
	s.cancel()
	s.cron.Stop()
	s.running = false
	s.logger.Info("service stopped", "uptime", time.Since(s.startedAt).Round(time.Second).String())
}

// Status returns the current running flag, uptime and next-fire estimate.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:  s.running,
		Interval: s.cfg.Interval.String(),
	}
	if !s.running {
		return st
	}
	st.StartedAt = s.startedAt
	st.Uptime = time.Since(s.startedAt).Round(time.Second).String()
	next := s.cron.Entry(s.entryID).Next
	if next.IsZero() {
		// Timer not armed yet (first cycle still running).
		next = s.startedAt.Add(s.cfg.Interval)
	}
	st.NextCheckAt = next
	return st
}

// RunOnce executes a single check cycle outside the timer. Used by the
// one-shot scan command.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.runCycle(ctx)
}

// runCycle performs one scrape-classify-persist-notify pass. Every failure
// mode aborts or degrades only the current cycle; the scheduler stays up.
func (s *Service) runCycle(ctx context.Context) error {
	start := time.Now()
	cycleID := uuid.NewString()
	log := &logging.Logger{Logger: s.logger.With("cycle_id", cycleID)}

	records, err := s.scrapeWithRetry(ctx, log)
	if err != nil {
		s.metrics.ObserveCycle("scrape_failed", time.Since(start).Seconds())
		log.Error("scrape failed, cycle aborted", "error", err)
		return err
	}

	if err := s.store.WriteLatestResults(artifact.LatestResults{
		CycleID:   cycleID,
		ScrapedAt: time.Now().UTC(),
		Queries:   s.cfg.Queries,
		Records:   records,
	}); err != nil {
		// Persistence failure degrades the cycle but the in-memory result
		// still drives the email decision.
		log.Error("latest-results write failed", "error", err)
	}

	p, err := prefs.Load(s.cfg.PreferencesPath)
	if err != nil {
		s.metrics.ObserveCycle("prefs_failed", time.Since(start).Seconds())
		log.Error("preferences unreadable, cycle aborted", "error", err)
		return err
	}

	res := notification.Classify(records, p)
	nextCheck := time.Now().Add(s.cfg.Interval)

	if err := s.store.WriteNotificationResult(artifact.NotificationResult{
		CycleID:     cycleID,
		Result:      res,
		NextCheckAt: nextCheck,
	}); err != nil {
		log.Error("notification-result write failed", "error", err)
	}

	if res.ShouldNotify && s.mailer != nil && len(p.EmailRecipients) > 0 {
		if err := s.mailer.SendAlert(ctx, res, p.EmailRecipients); err != nil {
			s.metrics.ObserveEmail("error")
			log.Error("alert dispatch failed", "error", err)
		} else {
			s.metrics.ObserveEmail("sent")
		}
	}

	s.metrics.ObserveCycle("success", time.Since(start).Seconds())
	log.Info("cycle complete",
		"duration", time.Since(start).Round(time.Millisecond).String(),
		"records", len(records),
		"relevant", res.Summary.RelevantCount,
		"level", string(res.Level),
		"should_notify", res.ShouldNotify,
		"next_check", nextCheck.Format(time.RFC3339),
	)
	return nil
}

// scrapeWithRetry invokes the crawler up to MaxScrapeAttempts times with
// linear backoff (attempt N waits N×RetryBackoffStep). The backoff sleep is
// cancellable so shutdown is never held up by a retry in progress.
func (s *Service) scrapeWithRetry(ctx context.Context, log *logging.Logger) ([]availability.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxScrapeAttempts; attempt++ {
		records, err := s.crawler.Crawl(ctx, s.cfg.Queries)
		if err == nil {
			s.metrics.ObserveScrapeAttempt("success")
			return records, nil
		}
		s.metrics.ObserveScrapeAttempt("error")
		lastErr = err
		log.Warn("scrape attempt failed", "attempt", attempt, "max", s.cfg.MaxScrapeAttempts, "error", err)

		if attempt == s.cfg.MaxScrapeAttempts {
			break
		}
		delay := time.Duration(attempt) * s.cfg.RetryBackoffStep
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("service: scrape cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("service: scrape failed after %d attempts: %w", s.cfg.MaxScrapeAttempts, lastErr)
}

// cronLogAdapter routes cron's chain logging (notably the skip message from
// SkipIfStillRunning) through the service logger.
type cronLogAdapter struct {
	l *logging.Logger
}

func (a cronLogAdapter) Info(msg string, kv ...interface{}) {
	a.l.Info(msg, kv...)
}

func (a cronLogAdapter) Error(err error, msg string, kv ...interface{}) {
	a.l.Error(msg, append(kv, "error", err)...)
}

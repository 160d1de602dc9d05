// Command scan runs a single scrape-classify pass and prints the report.
// Operators use it for smoke checks without arming the watcher's timer.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ozvisa/slotwatch/internal/artifact"
	"github.com/ozvisa/slotwatch/internal/config"
	"github.com/ozvisa/slotwatch/internal/notification"
	"github.com/ozvisa/slotwatch/internal/notify"
	"github.com/ozvisa/slotwatch/internal/prefs"
	"github.com/ozvisa/slotwatch/internal/scraper"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	queries, err := cfg.SearchQueries()
	if err != nil || len(queries) == 0 {
		logger.Error("scan requires SEARCH_QUERIES_JSON", "error", err)
		os.Exit(1)
	}

	p, err := prefs.Load(cfg.PreferencesPath)
	if err != nil {
		logger.Error("failed to load notification preferences", "path", cfg.PreferencesPath, "error", err)
		os.Exit(1)
	}

	crawler := scraper.NewSiteCrawler(cfg.BookingBaseURL,
		scraper.WithTimeout(cfg.ScrapeTimeout),
		scraper.WithLogger(logger.WithComponent("scraper")),
	)

	records, err := crawler.Crawl(ctx, queries)
	if err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}

	res := notification.Classify(records, p)
	fmt.Print(notification.Report(res))
	if len(res.RelevantSlots) > 0 && cfg.BookingBaseURL != "" {
		for _, r := range res.RelevantSlots {
			if r.SearchQuery != nil {
				fmt.Println("Book:", notify.BookingURL(cfg.BookingBaseURL, *r.SearchQuery))
				break
			}
		}
	}

	store := artifact.NewStore(cfg.LatestResultsPath, cfg.NotificationResultPath, logger.WithComponent("artifact"))
	if err := store.WriteLatestResults(artifact.LatestResults{
		CycleID:   "scan",
		ScrapedAt: time.Now().UTC(),
		Queries:   queries,
		Records:   records,
	}); err != nil {
		logger.Error("latest-results write failed", "error", err)
	}
	if err := store.WriteNotificationResult(artifact.NotificationResult{
		CycleID: "scan",
		Result:  res,
	}); err != nil {
		logger.Error("notification-result write failed", "error", err)
	}
}

// Package scraper fetches availability from the booking site's location
// search page. It is the service's only external blocking collaborator; the
// service loop owns retry and backoff around it.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

// Crawler fetches availability records for a set of search queries.
type Crawler interface {
	Crawl(ctx context.Context, queries []availability.SearchQuery) ([]availability.Record, error)
}

const defaultUserAgent = "Mozilla/5.0 (compatible; slotwatch/1.0)"

// noSlotMarker is the site's text for a location with nothing bookable.
const noSlotMarker = "no available slot"

// SiteCrawler scrapes the booking site's search results with colly.
type SiteCrawler struct {
	baseURL   string
	timeout   time.Duration
	userAgent string
	logger    *logging.Logger
}

// Option configures a SiteCrawler.
type Option func(*SiteCrawler)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *SiteCrawler) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent overrides the crawler's user agent.
func WithUserAgent(ua string) Option {
	return func(c *SiteCrawler) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *SiteCrawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewSiteCrawler creates a crawler against the booking site's search page.
func NewSiteCrawler(baseURL string, opts ...Option) *SiteCrawler {
	c := &SiteCrawler{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   30 * time.Second,
		userAgent: defaultUserAgent,
		logger:    logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl runs one search per query and concatenates the parsed records. A
// single failed query logs and is skipped; records from the other queries
// are still returned. Only when every query fails does Crawl return an
// error, so the retry loop upstream can try again.
func (c *SiteCrawler) Crawl(ctx context.Context, queries []availability.SearchQuery) ([]availability.Record, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("scraper: no search queries configured")
	}

	var records []availability.Record
	var firstErr error
	failed := 0

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scraper: crawl cancelled: %w", err)
		}
		recs, err := c.crawlOne(q)
		if err != nil {
			c.logger.Warn("search query failed",
				"postcode", q.Postcode, "state", q.State, "error", err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		records = append(records, recs...)
	}

	if failed == len(queries) {
		return nil, fmt.Errorf("scraper: all %d search queries failed: %w", failed, firstErr)
	}

	c.logger.Info("crawl complete",
		"queries", len(queries), "failed", failed, "records", len(records))
	return records, nil
}

func (c *SiteCrawler) crawlOne(q availability.SearchQuery) ([]availability.Record, error) {
	collector := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(c.timeout)

	var records []availability.Record

	collector.OnHTML("div.location-result", func(e *colly.HTMLElement) {
		rec := parseLocation(e.DOM, q)
		records = append(records, rec)
	})

	var fetchErr error
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(c.searchURL(q)); err != nil {
		return nil, fmt.Errorf("scraper: visit: %w", err)
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("scraper: fetch: %w", fetchErr)
	}
	return records, nil
}

func (c *SiteCrawler) searchURL(q availability.SearchQuery) string {
	v := url.Values{}
	if q.Postcode != "" {
		v.Set("postcode", q.Postcode)
	}
	if q.State != "" {
		v.Set("state", q.State)
	}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if len(v) == 0 {
		return c.baseURL
	}
	return c.baseURL + "?" + v.Encode()
}

// parseLocation turns one result row into a record. The query that produced
// the row rides along for state scoping and deep-links downstream.
func parseLocation(sel *goquery.Selection, q availability.SearchQuery) availability.Record {
	text := func(selector string) string {
		return strings.TrimSpace(sel.Find(selector).First().Text())
	}
	avail := text(".availability")
	query := q
	return availability.Record{
		ID:           strings.TrimSpace(sel.AttrOr("data-location-id", "")),
		Name:         text(".location-name"),
		FullName:     text(".location-full-name"),
		Address:      text(".location-address"),
		Distance:     text(".distance"),
		Availability: avail,
		IsAvailable:  avail != "" && !strings.Contains(strings.ToLower(avail), noSlotMarker),
		SearchQuery:  &query,
	}
}

// Package artifact persists the two flat JSON files operators and dashboards
// poll: the latest raw scrape and the latest classification. Full-file
// overwrite only; no history is kept.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/notification"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

// LatestResults is the raw-scrape artifact.
type LatestResults struct {
	CycleID   string                     `json:"cycleId"`
	ScrapedAt time.Time                  `json:"scrapedAt"`
	Queries   []availability.SearchQuery `json:"queries"`
	Records   []availability.Record      `json:"records"`
}

// NotificationResult is the classification artifact.
type NotificationResult struct {
	CycleID     string              `json:"cycleId"`
	Result      notification.Result `json:"result"`
	NextCheckAt time.Time           `json:"nextCheckAt"`
}

// Store reads and writes the artifact files.
type Store struct {
	resultsPath      string
	notificationPath string
	logger           *logging.Logger
}

// NewStore creates an artifact store over the two file paths.
func NewStore(resultsPath, notificationPath string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		resultsPath:      resultsPath,
		notificationPath: notificationPath,
		logger:           logger,
	}
}

// WriteLatestResults overwrites the latest-results artifact.
func (s *Store) WriteLatestResults(latest LatestResults) error {
	return s.writeJSON(s.resultsPath, latest)
}

// ReadLatestResults loads the latest-results artifact.
func (s *Store) ReadLatestResults() (*LatestResults, error) {
	var latest LatestResults
	if err := s.readJSON(s.resultsPath, &latest); err != nil {
		return nil, err
	}
	return &latest, nil
}

// WriteNotificationResult overwrites the notification-result artifact.
func (s *Store) WriteNotificationResult(result NotificationResult) error {
	return s.writeJSON(s.notificationPath, result)
}

// ReadNotificationResult loads the notification-result artifact.
func (s *Store) ReadNotificationResult() (*NotificationResult, error) {
	var result NotificationResult
	if err := s.readJSON(s.notificationPath, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// writeJSON writes via a temp file in the target directory and renames it
// into place, so pollers never observe a torn file.
func (s *Store) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: rename %s: %w", path, err)
	}

	s.logger.Debug("artifact written", "path", path, "bytes", len(data))
	return nil
}

func (s *Store) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("artifact: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifact: parse %s: %w", path, err)
	}
	return nil
}

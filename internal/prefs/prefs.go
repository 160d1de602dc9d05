// Package prefs models the user's notification preferences and loads them
// from a flat JSON file.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Load error kinds. Startup treats both as fatal; a running service treats
// them as a per-cycle failure and keeps the scheduler alive.
var (
	ErrNotFound = errors.New("prefs: file not found")
	ErrInvalid  = errors.New("prefs: file not parseable")
)

// PlaceRule selects locations worth notifying about. Within one rule every
// specified field must hold; a record is relevant when any rule matches.
type PlaceRule struct {
	LocationID   string `json:"locationId,omitempty"`
	LocationName string `json:"locationName,omitempty"` // case-insensitive substring
	State        string `json:"state,omitempty"`        // exact match against the search query state
	MaxDistance  string `json:"maxDistance,omitempty"`  // free text, e.g. "100 km"
}

// Empty reports whether the rule has no criteria at all. An empty rule
// matches every record.
func (r PlaceRule) Empty() bool {
	return r.LocationID == "" && r.LocationName == "" && r.State == "" && r.MaxDistance == ""
}

// SlotRef names a location and optionally a date, used both as the existing
// booking baseline and as the expected-slot preference.
type SlotRef struct {
	LocationID   string `json:"locationId,omitempty"`
	LocationName string `json:"locationName,omitempty"`
	Date         string `json:"date,omitempty"` // YYYY-MM-DD
}

// DateValue parses the reference date. Returns false when the field is empty
// or malformed.
func (s SlotRef) DateValue() (time.Time, bool) {
	if s.Date == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(time.DateOnly, s.Date, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Preferences is the user-supplied notification configuration, immutable for
// the duration of one cycle.
type Preferences struct {
	PlacesToNotify  []PlaceRule `json:"placesToNotify"`
	ExistingSlot    *SlotRef    `json:"existingSlot,omitempty"`
	ExpectedSlot    *SlotRef    `json:"expectedSlot,omitempty"`
	OnlyBetterSlots bool        `json:"onlyBetterSlots"`
	EmailRecipients []string    `json:"emailRecipients"`
}

// Load reads preferences from the JSON file at path. A missing file returns
// ErrNotFound, unparseable content returns ErrInvalid; both are wrapped so
// callers can use errors.Is.
func Load(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("prefs: read %s: %w", path, err)
	}

	var p Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return &p, nil
}

// Package match holds the pure slot-comparison functions: place-rule
// matching, better-than-existing comparison and expected-slot matching.
package match

import (
	"strings"
	"time"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/prefs"
)

// expectedTolerance is the window either side of the expected date that
// still counts as a match, inclusive.
const expectedTolerance = 7 * 24 * time.Hour

// MatchesPlace reports whether a record satisfies one notification rule.
// A matching location id short-circuits true. Otherwise every specified
// field must hold. A rule with no criteria matches any record.
func MatchesPlace(r availability.Record, rule prefs.PlaceRule) bool {
	if rule.LocationID != "" && rule.LocationID == r.ID {
		return true
	}
	if rule.LocationName == "" && rule.State == "" && rule.MaxDistance == "" {
		// Nothing else to evaluate: an empty rule matches everything, an
		// id-only rule that got here already failed its only criterion.
		return rule.LocationID == ""
	}
	if rule.LocationName != "" && !containsFold(r.Name, rule.LocationName) {
		return false
	}
	if rule.State != "" {
		if r.SearchQuery == nil || r.SearchQuery.State != rule.State {
			return false
		}
	}
	if rule.MaxDistance != "" {
		if availability.DistanceValue(r.Distance) > availability.DistanceValue(rule.MaxDistance) {
			return false
		}
	}
	return true
}

// IsBetterThanExisting reports whether a record is an improvement over an
// already-booked slot. A record at the same location is better only when its
// date is strictly earlier. A record at any other location counts as better
// unconditionally; see the cross-location policy note in DESIGN.md.
func IsBetterThanExisting(r availability.Record, existing prefs.SlotRef) bool {
	slotDate, ok := r.SlotDate()
	if !ok {
		return false
	}
	if sameLocation(r, existing) {
		bookedDate, ok := existing.DateValue()
		if !ok {
			return false
		}
		return slotDate.Before(bookedDate)
	}
	return true
}

// MatchesExpected reports whether a record matches the user's preferred
// location/date. Location criteria AND together; when a date is set the
// record's date must fall within seven days of it, either direction,
// boundaries inclusive.
func MatchesExpected(r availability.Record, expected prefs.SlotRef) bool {
	if expected.LocationID != "" && expected.LocationID != r.ID {
		return false
	}
	if expected.LocationName != "" && !containsFold(r.Name, expected.LocationName) {
		return false
	}
	if expected.Date == "" {
		return true
	}
	wantDate, ok := expected.DateValue()
	if !ok {
		return false
	}
	slotDate, ok := r.SlotDate()
	if !ok {
		return false
	}
	diff := slotDate.Sub(wantDate)
	if diff < 0 {
		diff = -diff
	}
	return diff <= expectedTolerance
}

// sameLocation reports whether a record refers to the same center as a slot
// reference, by id equality or case-insensitive name substring.
func sameLocation(r availability.Record, ref prefs.SlotRef) bool {
	if ref.LocationID != "" && ref.LocationID == r.ID {
		return true
	}
	if ref.LocationName != "" && containsFold(r.Name, ref.LocationName) {
		return true
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

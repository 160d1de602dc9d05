// Package availability defines the scrape output data model: one record per
// examination location, tagged with the search query that produced it.
package availability

import (
	"regexp"
	"strconv"
	"time"
)

// SearchQuery is the postcode/state/name tuple a scrape ran with. Records
// carry it so downstream filtering can scope by state and so booking
// deep-links can be rebuilt.
type SearchQuery struct {
	Postcode string `json:"postcode"`
	State    string `json:"state"`
	Name     string `json:"name,omitempty"`
}

// Record is one appointment-location entry from a single scrape.
type Record struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	FullName     string       `json:"fullName"`
	Address      string       `json:"address"`
	Distance     string       `json:"distance"`     // free text, e.g. "235 km"
	Availability string       `json:"availability"` // free text, e.g. "Monday 26/08/2025 10:00 AM"
	IsAvailable  bool         `json:"isAvailable"`
	SearchQuery  *SearchQuery `json:"searchQuery,omitempty"`
}

// slotDateRe matches the first embedded D/M/YYYY date in an availability
// string. Day and month are not zero-padded on the site.
var slotDateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)

var digitsRe = regexp.MustCompile(`\d+`)

// SlotDate extracts the appointment date from the availability string.
// Time-of-day is ignored: comparisons downstream operate on calendar days.
// Returns false when no valid date is embedded; such records are treated as
// unavailable for comparison purposes even if flagged available.
func (r Record) SlotDate() (time.Time, bool) {
	return ParseSlotDate(r.Availability)
}

// ParseSlotDate parses the first D/M/YYYY pattern found in s to a date-only
// value in UTC.
func ParseSlotDate(s string) (time.Time, bool) {
	m := slotDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		// time.Date normalizes overflow, e.g. 31/2 becomes March
		return time.Time{}, false
	}
	return d, true
}

// DistanceValue extracts the numeric magnitude from a free-text distance
// string such as "235 km". The first integer substring wins; a string with
// no digits parses as 0.
func DistanceValue(s string) int {
	m := digitsRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// Package notification classifies a scraped availability set against the
// user's preferences and renders the result as a human-readable report.
package notification

import (
	"fmt"
	"time"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/match"
	"github.com/ozvisa/slotwatch/internal/prefs"
)

// Level orders classification outcomes by urgency.
type Level string

const (
	LevelHigh   Level = "HIGH"   // at least one better-than-existing slot
	LevelMedium Level = "MEDIUM" // at least one expected match
	LevelLow    Level = "LOW"    // at least one relevant slot
	LevelNone   Level = "NONE"   // nothing relevant
)

// Summary carries the counts and the one-line message for a classification.
type Summary struct {
	RelevantCount int    `json:"relevantCount"`
	BetterCount   int    `json:"betterCount"`
	ExpectedCount int    `json:"expectedCount"`
	Message       string `json:"message"`
}

// Result is the classified outcome of one cycle. The subsets may overlap: a
// slot can be relevant, better and an expected match at once.
type Result struct {
	ShouldNotify       bool                  `json:"shouldNotify"`
	RelevantSlots      []availability.Record `json:"relevantSlots"`
	BetterThanExisting []availability.Record `json:"betterThanExisting"`
	MatchesExpected    []availability.Record `json:"matchesExpected"`
	Summary            Summary               `json:"summary"`
	Level              Level                 `json:"level"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}

// Classify filters records against the preferences. Deterministic given its
// inputs (GeneratedAt excepted); a malformed record never aborts
// classification of the rest, it simply fails the checks it cannot satisfy.
func Classify(records []availability.Record, p *prefs.Preferences) Result {
	res := Result{GeneratedAt: time.Now().UTC()}
	if p == nil {
		p = &prefs.Preferences{}
	}

	for _, r := range records {
		if !r.IsAvailable {
			continue
		}
		relevant := false
		for _, rule := range p.PlacesToNotify {
			if match.MatchesPlace(r, rule) {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		res.RelevantSlots = append(res.RelevantSlots, r)

		if p.ExistingSlot != nil && match.IsBetterThanExisting(r, *p.ExistingSlot) {
			res.BetterThanExisting = append(res.BetterThanExisting, r)
		}
		if p.ExpectedSlot != nil && match.MatchesExpected(r, *p.ExpectedSlot) {
			res.MatchesExpected = append(res.MatchesExpected, r)
		}
	}

	if p.OnlyBetterSlots {
		res.ShouldNotify = len(res.BetterThanExisting) > 0 || len(res.MatchesExpected) > 0
	} else {
		res.ShouldNotify = len(res.RelevantSlots) > 0
	}

	res.Summary = summarize(res)
	res.Level = levelOf(res)
	return res
}

func summarize(res Result) Summary {
	s := Summary{
		RelevantCount: len(res.RelevantSlots),
		BetterCount:   len(res.BetterThanExisting),
		ExpectedCount: len(res.MatchesExpected),
	}
	switch {
	case s.BetterCount > 0 || s.ExpectedCount > 0:
		s.Message = fmt.Sprintf("Found %d better slot(s) and %d expected match(es)", s.BetterCount, s.ExpectedCount)
	case s.RelevantCount > 0:
		s.Message = fmt.Sprintf("Found %d relevant slot(s)", s.RelevantCount)
	default:
		s.Message = "No relevant slots found"
	}
	return s
}

func levelOf(res Result) Level {
	switch {
	case len(res.BetterThanExisting) > 0:
		return LevelHigh
	case len(res.MatchesExpected) > 0:
		return LevelMedium
	case len(res.RelevantSlots) > 0:
		return LevelLow
	default:
		return LevelNone
	}
}

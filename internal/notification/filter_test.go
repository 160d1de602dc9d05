package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/prefs"
)

func adelaideRecord() availability.Record {
	return availability.Record{
		ID:           "adl-1",
		Name:         "Adelaide City Centre",
		Address:      "22 King William St, Adelaide SA",
		Distance:     "12 km",
		Availability: "Monday 26/08/2025 10:00 AM",
		IsAvailable:  true,
		SearchQuery:  &availability.SearchQuery{Postcode: "5000", State: "SA"},
	}
}

func perthRecord() availability.Record {
	return availability.Record{
		ID:           "per-1",
		Name:         "Perth CBD",
		Address:      "140 St Georges Tce, Perth WA",
		Distance:     "8 km",
		Availability: "Wednesday 1/10/2025 9:00 AM",
		IsAvailable:  true,
		SearchQuery:  &availability.SearchQuery{Postcode: "6000", State: "WA"},
	}
}

func TestClassifyRelevantScenario(t *testing.T) {
	p := &prefs.Preferences{
		PlacesToNotify: []prefs.PlaceRule{{LocationName: "Adelaide", State: "SA"}},
	}

	res := Classify([]availability.Record{adelaideRecord(), perthRecord()}, p)

	require.Len(t, res.RelevantSlots, 1)
	assert.Equal(t, "Adelaide City Centre", res.RelevantSlots[0].Name)
	assert.True(t, res.ShouldNotify)
	assert.Equal(t, LevelLow, res.Level)
	assert.Equal(t, "Found 1 relevant slot(s)", res.Summary.Message)
}

func TestClassifyExcludesUnavailableRecords(t *testing.T) {
	rec := adelaideRecord()
	rec.IsAvailable = false
	rec.Availability = "No available slot"

	res := Classify([]availability.Record{rec}, &prefs.Preferences{
		PlacesToNotify: []prefs.PlaceRule{{}}, // matches everything
	})

	assert.Empty(t, res.RelevantSlots)
	assert.Empty(t, res.BetterThanExisting)
	assert.Empty(t, res.MatchesExpected)
	assert.False(t, res.ShouldNotify)
	assert.Equal(t, LevelNone, res.Level)
	assert.Equal(t, "No relevant slots found", res.Summary.Message)
}

func TestClassifyOnlyBetterSlotsGate(t *testing.T) {
	p := &prefs.Preferences{
		PlacesToNotify:  []prefs.PlaceRule{{LocationName: "Adelaide"}},
		ExistingSlot:    &prefs.SlotRef{LocationName: "Adelaide", Date: "2025-08-01"},
		OnlyBetterSlots: true,
	}

	// The slot is relevant but later than the existing booking at the same
	// center, and no expected slot is configured.
	res := Classify([]availability.Record{adelaideRecord()}, p)

	require.Len(t, res.RelevantSlots, 1)
	assert.Empty(t, res.BetterThanExisting)
	assert.False(t, res.ShouldNotify)
}

func TestClassifyBetterSlotsAreAdditive(t *testing.T) {
	p := &prefs.Preferences{
		PlacesToNotify: []prefs.PlaceRule{{}},
		ExistingSlot:   &prefs.SlotRef{LocationName: "Perth", Date: "2025-12-31"},
	}

	res := Classify([]availability.Record{adelaideRecord(), perthRecord()}, p)

	// Both are relevant; the Perth slot is earlier than the booking, the
	// Adelaide slot is at another center and counts under the permissive
	// cross-location policy.
	assert.Len(t, res.RelevantSlots, 2)
	assert.Len(t, res.BetterThanExisting, 2)
	assert.Equal(t, LevelHigh, res.Level)
	assert.True(t, res.ShouldNotify)
	assert.Equal(t, "Found 2 better slot(s) and 0 expected match(es)", res.Summary.Message)
}

func TestClassifyExpectedMatch(t *testing.T) {
	p := &prefs.Preferences{
		PlacesToNotify:  []prefs.PlaceRule{{LocationName: "Adelaide"}},
		ExpectedSlot:    &prefs.SlotRef{LocationName: "Adelaide", Date: "2025-08-20"},
		OnlyBetterSlots: true,
	}

	res := Classify([]availability.Record{adelaideRecord()}, p)

	require.Len(t, res.MatchesExpected, 1)
	assert.True(t, res.ShouldNotify)
	assert.Equal(t, LevelMedium, res.Level)
}

func TestClassifyIsIdempotent(t *testing.T) {
	records := []availability.Record{adelaideRecord(), perthRecord()}
	p := &prefs.Preferences{
		PlacesToNotify: []prefs.PlaceRule{{MaxDistance: "50 km"}},
		ExistingSlot:   &prefs.SlotRef{LocationName: "Perth", Date: "2025-12-31"},
		ExpectedSlot:   &prefs.SlotRef{Date: "2025-08-20"},
	}

	a := Classify(records, p)
	b := Classify(records, p)

	assert.Equal(t, a.RelevantSlots, b.RelevantSlots)
	assert.Equal(t, a.BetterThanExisting, b.BetterThanExisting)
	assert.Equal(t, a.MatchesExpected, b.MatchesExpected)
	assert.Equal(t, a.ShouldNotify, b.ShouldNotify)
	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, a.Level, b.Level)
}

func TestClassifyMalformedRecordDoesNotAbort(t *testing.T) {
	malformed := availability.Record{
		// No id, no search query, unparseable availability, flagged
		// available anyway.
		IsAvailable:  true,
		Availability: "call the center",
	}
	p := &prefs.Preferences{
		PlacesToNotify: []prefs.PlaceRule{{}},
		ExistingSlot:   &prefs.SlotRef{LocationName: "Perth", Date: "2025-12-31"},
		ExpectedSlot:   &prefs.SlotRef{Date: "2025-08-20"},
	}

	res := Classify([]availability.Record{malformed, adelaideRecord()}, p)

	// The malformed record is still relevant under the empty rule but fails
	// every dated comparison; the well-formed one classifies normally.
	assert.Len(t, res.RelevantSlots, 2)
	require.Len(t, res.BetterThanExisting, 1)
	assert.Equal(t, "Adelaide City Centre", res.BetterThanExisting[0].Name)
	require.Len(t, res.MatchesExpected, 1)
}

func TestClassifyNilPreferences(t *testing.T) {
	res := Classify([]availability.Record{adelaideRecord()}, nil)
	assert.False(t, res.ShouldNotify)
	assert.Equal(t, LevelNone, res.Level)
}

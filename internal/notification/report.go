package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/ozvisa/slotwatch/internal/availability"
)

// Report renders a classified result as a multi-section plain-text summary,
// used for logs and as the email body source. Pure formatting.
func Report(res Result) string {
	var b strings.Builder
	b.WriteString("Medical visa slot check\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", res.GeneratedAt.Format(time.RFC3339)))
	b.WriteString(res.Summary.Message + "\n")

	if len(res.RelevantSlots) == 0 {
		return b.String()
	}

	if len(res.BetterThanExisting) > 0 {
		b.WriteString("\nBetter than existing booking:\n")
		writeRecords(&b, res.BetterThanExisting)
	}
	if len(res.MatchesExpected) > 0 {
		b.WriteString("\nExpected matches:\n")
		writeRecords(&b, res.MatchesExpected)
	}
	if other := otherRelevant(res); len(other) > 0 {
		b.WriteString("\nOther relevant slots:\n")
		writeRecords(&b, other)
	}
	return b.String()
}

// otherRelevant is the relevant set minus the better and expected sets,
// order-preserving.
func otherRelevant(res Result) []availability.Record {
	seen := make(map[string]bool, len(res.BetterThanExisting)+len(res.MatchesExpected))
	for _, r := range res.BetterThanExisting {
		seen[recordKey(r)] = true
	}
	for _, r := range res.MatchesExpected {
		seen[recordKey(r)] = true
	}

	var out []availability.Record
	for _, r := range res.RelevantSlots {
		if !seen[recordKey(r)] {
			out = append(out, r)
		}
	}
	return out
}

// recordKey distinguishes records within one scrape. Provider ids can be
// empty, so the name/address pair backs them up.
func recordKey(r availability.Record) string {
	if r.ID != "" {
		return r.ID
	}
	return r.Name + "|" + r.Address
}

func writeRecords(b *strings.Builder, records []availability.Record) {
	for _, r := range records {
		b.WriteString(fmt.Sprintf("  - %s (%s)\n", r.Name, r.Distance))
		if r.Address != "" {
			b.WriteString(fmt.Sprintf("    %s\n", r.Address))
		}
		b.WriteString(fmt.Sprintf("    %s\n", r.Availability))
	}
}

package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/notification"
	"github.com/ozvisa/slotwatch/pkg/logging"
)

// AlertMailer renders a classified result into an email and dispatches it
// through the configured sender. Dispatch failures are reported to the
// caller but never retried here; the next cycle re-evaluates from scratch.
type AlertMailer struct {
	sender         EmailSender
	bookingBaseURL string
	logger         *logging.Logger
}

// NewAlertMailer creates an alert mailer. bookingBaseURL is the booking
// site's search page; deep-links per slot are built from it.
func NewAlertMailer(sender EmailSender, bookingBaseURL string, logger *logging.Logger) *AlertMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &AlertMailer{
		sender:         sender,
		bookingBaseURL: bookingBaseURL,
		logger:         logger,
	}
}

// SendAlert dispatches exactly one email for the cycle's result. An empty
// recipient list is valid and yields no email.
func (m *AlertMailer) SendAlert(ctx context.Context, res notification.Result, recipients []string) error {
	if len(recipients) == 0 {
		m.logger.Debug("no email recipients configured, skipping alert")
		return nil
	}
	if m.sender == nil {
		return fmt.Errorf("notify: email sender not configured")
	}

	msg := EmailMessage{
		To:      recipients,
		Subject: fmt.Sprintf("[%s] Visa slot alert: %s", res.Level, res.Summary.Message),
		Body:    m.plainBody(res),
		HTML:    m.htmlBody(res),
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send alert: %w", err)
	}

	m.logger.Info("alert email dispatched",
		"recipients", len(recipients),
		"level", string(res.Level),
		"relevant", res.Summary.RelevantCount,
	)
	return nil
}

func (m *AlertMailer) plainBody(res notification.Result) string {
	var b strings.Builder
	b.WriteString(notification.Report(res))

	links := m.bookingLinks(res.RelevantSlots)
	if len(links) > 0 {
		b.WriteString("\nBook online:\n")
		for _, l := range links {
			b.WriteString("  " + l + "\n")
		}
	}
	return b.String()
}

func (m *AlertMailer) htmlBody(res notification.Result) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">`)
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", res.Summary.Message))
	b.WriteString("<pre>")
	b.WriteString(htmlEscape(notification.Report(res)))
	b.WriteString("</pre>")

	links := m.bookingLinks(res.RelevantSlots)
	if len(links) > 0 {
		b.WriteString("<p>")
		for _, l := range links {
			b.WriteString(fmt.Sprintf(`<a href="%s">%s</a><br>`, l, l))
		}
		b.WriteString("</p>")
	}
	b.WriteString("</div>")
	return b.String()
}

// bookingLinks builds one deep-link per distinct search query among the
// relevant slots. Records without a search query cannot be linked.
func (m *AlertMailer) bookingLinks(records []availability.Record) []string {
	if m.bookingBaseURL == "" {
		return nil
	}
	seen := make(map[string]bool)
	var links []string
	for _, r := range records {
		if r.SearchQuery == nil {
			continue
		}
		link := BookingURL(m.bookingBaseURL, *r.SearchQuery)
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	}
	return links
}

// BookingURL builds the booking site's search deep-link for one query.
func BookingURL(baseURL string, q availability.SearchQuery) string {
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
		return baseURL
	}
	return baseURL + "?" + v.Encode()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

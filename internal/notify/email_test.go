package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozvisa/slotwatch/internal/availability"
	"github.com/ozvisa/slotwatch/internal/notification"
)

type captureSender struct {
	sent []EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func sampleResult() notification.Result {
	rec := availability.Record{
		ID:           "adl-1",
		Name:         "Adelaide City Centre",
		Address:      "22 King William St",
		Distance:     "12 km",
		Availability: "Monday 26/08/2025 10:00 AM",
		IsAvailable:  true,
		SearchQuery:  &availability.SearchQuery{Postcode: "5000", State: "SA"},
	}
	return notification.Result{
		ShouldNotify:       true,
		RelevantSlots:      []availability.Record{rec},
		BetterThanExisting: []availability.Record{rec},
		Summary:            notification.Summary{RelevantCount: 1, BetterCount: 1, Message: "Found 1 better slot(s) and 0 expected match(es)"},
		Level:              notification.LevelHigh,
	}
}

func TestSendAlertBuildsMessage(t *testing.T) {
	sender := &captureSender{}
	mailer := NewAlertMailer(sender, "https://bookings.example.com/search", nil)

	err := mailer.SendAlert(context.Background(), sampleResult(), []string{"a@example.com", "b@example.com"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "[HIGH]")
	assert.Contains(t, msg.Subject, "Found 1 better slot(s)")
	assert.Contains(t, msg.Body, "Adelaide City Centre")
	assert.Contains(t, msg.Body, "https://bookings.example.com/search?postcode=5000&state=SA")
	assert.Contains(t, msg.HTML, "<a href=")
}

func TestSendAlertNoRecipientsIsNoop(t *testing.T) {
	sender := &captureSender{}
	mailer := NewAlertMailer(sender, "https://bookings.example.com/search", nil)

	require.NoError(t, mailer.SendAlert(context.Background(), sampleResult(), nil))
	assert.Empty(t, sender.sent)
}

func TestSendAlertPropagatesSenderError(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	mailer := NewAlertMailer(sender, "", nil)

	err := mailer.SendAlert(context.Background(), sampleResult(), []string{"a@example.com"})
	assert.ErrorContains(t, err, "smtp down")
}

func TestBookingURL(t *testing.T) {
	q := availability.SearchQuery{Postcode: "6000", State: "WA", Name: "Perth"}
	assert.Equal(t,
		"https://b.example/search?name=Perth&postcode=6000&state=WA",
		BookingURL("https://b.example/search", q),
	)
	assert.Equal(t, "https://b.example/search", BookingURL("https://b.example/search", availability.SearchQuery{}))
}

func TestStubEmailSender(t *testing.T) {
	stub := NewStubEmailSender(nil)
	assert.NoError(t, stub.Send(context.Background(), EmailMessage{To: []string{"x@example.com"}}))
}

func TestNewSendGridSenderRequiresAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{}, nil))
}

func TestNewSESSenderRequiresClient(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))
}

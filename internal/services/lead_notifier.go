package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
	"github.com/rihlahq/crm-backend/internal/models"
)

// LeadNotifier alerts the agency when the webhook auto-creates a lead from
// an unrecognized phone number.
type LeadNotifier interface {
	NotifyNewLead(ctx context.Context, lead *models.Lead, preview string) error
}

// SMTPNotifierConfig holds the mail relay coordinates for the notifier
type SMTPNotifierConfig struct {
	Addr string // host:port of the SMTP relay
	From string
	To   string // ops mailbox that triages fresh leads
}

// smtpNotifier implements LeadNotifier over a plain SMTP relay
type smtpNotifier struct {
	cfg SMTPNotifierConfig
}

// NewSMTPNotifier creates a LeadNotifier that emails the ops mailbox
func NewSMTPNotifier(cfg SMTPNotifierConfig) LeadNotifier {
	return &smtpNotifier{cfg: cfg}
}

// NotifyNewLead builds and sends the new-lead alert email
func (n *smtpNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead, preview string) error {
	text := fmt.Sprintf(
		"A new WhatsApp lead was created from an incoming message.\n\n"+
			"Name:  %s\nPhone: %s\n\nFirst message:\n%s\n",
		lead.Name, lead.Phone, preview)

	part, err := enmime.Builder().
		From("", n.cfg.From).
		To("", n.cfg.To).
		Subject(fmt.Sprintf("New WhatsApp lead: %s", lead.Phone)).
		Text([]byte(text)).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build notification email: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return fmt.Errorf("failed to encode notification email: %w", err)
	}

	if err := smtp.SendMail(n.cfg.Addr, nil, n.cfg.From, []string{n.cfg.To}, &buf); err != nil {
		return fmt.Errorf("failed to send notification email: %w", err)
	}
	return nil
}

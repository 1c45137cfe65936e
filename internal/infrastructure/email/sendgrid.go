package email

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider sends through the SendGrid v3 mail API.
type SendGridProvider struct {
	client *sendgrid.Client
	domain string
}

// NewSendGridProvider sends with apiKey. domain is the verified sending domain
// used for the fallback noreply sender.
func NewSendGridProvider(apiKey, domain string) *SendGridProvider {
	return &SendGridProvider{client: sendgrid.NewSendClient(apiKey), domain: domain}
}

func (p *SendGridProvider) Name() string { return "sendgrid" }

// SandboxSender is noreply@ on the verified domain. SendGrid rejects senders
// outside a verified identity, so personal mailboxes cannot be used.
func (p *SendGridProvider) SandboxSender() string {
	if p.domain == "" {
		return ""
	}
	return "noreply@" + p.domain
}

func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(
		mail.NewEmail(msg.FromName, msg.From),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)
	resp, err := p.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, sendGridErrorText(resp.Body))
	}
	return nil
}

// sendGridErrorText extracts the messages from a SendGrid error body,
// e.g. {"errors":[{"message":"The from address does not match a verified Sender Identity."}]}.
func sendGridErrorText(body string) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil || len(payload.Errors) == 0 {
		return strings.TrimSpace(body)
	}
	msgs := make([]string, 0, len(payload.Errors))
	for _, e := range payload.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Package email delivers OTP codes through a transactional email provider.
// The provider is chosen once at startup from the configured credentials.
package email

import (
	"context"

	"github.com/fuel-otp/internal/config"
)

// Message is a single provider-agnostic email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
	Text     string
}

// Provider sends one email through a transactional email service.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
	// SandboxSender is the sender substituted for personal-mailbox addresses,
	// or "" when the provider has none.
	SandboxSender() string
}

// ContactAdder is implemented by providers that keep a marketing contact list.
type ContactAdder interface {
	AddContact(ctx context.Context, email string) error
}

// NewProvider returns the provider selected by cfg: SendGrid when its key is
// set, otherwise Resend, otherwise nil (email delivery not configured).
func NewProvider(cfg *config.Config) Provider {
	switch {
	case cfg.SendGridAPIKey != "":
		return NewSendGridProvider(cfg.SendGridAPIKey, cfg.EmailDomain)
	case cfg.ResendAPIKey != "":
		return NewResendProvider(cfg.ResendAPIKey, cfg.ResendAudienceID)
	default:
		return nil
	}
}

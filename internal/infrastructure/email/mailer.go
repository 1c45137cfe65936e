package email

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/fuel-otp/internal/config"
	"github.com/fuel-otp/internal/domain"
)

const channel = "email"

// User-facing rewrites of the two provider errors that need operator action.
const (
	MsgNotConfigured  = "Email service not configured"
	MsgTimeout        = "Email provider timed out"
	MsgDomainNotReady = "Email sender domain is not verified. Verify the sending domain with the email provider or use its sandbox sender."
	MsgSandboxOnly    = "Email provider is in test mode and can only deliver to the account owner's address. Verify a sending domain to reach other recipients."
)

var personalMailboxDomains = []string{
	"gmail.com", "googlemail.com", "yahoo.com", "hotmail.com",
	"outlook.com", "live.com", "icloud.com", "aol.com", "proton.me",
}

// Result describes a completed (or simulated) OTP email.
type Result struct {
	Provider string
	// SimulatedCode is set only when sending was short-circuited in development.
	SimulatedCode string
}

// Mailer delivers OTP emails.
type Mailer interface {
	SendOTP(ctx context.Context, to, code, lang string) (*Result, error)
}

type mailer struct {
	provider     Provider
	from         string
	fromName     string
	ttl          time.Duration
	timeout      time.Duration
	contactDelay time.Duration
	simulate     bool
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewMailer wraps provider (nil when no credential is configured).
func NewMailer(cfg *config.Config, provider Provider) Mailer {
	return &mailer{
		provider:     provider,
		from:         cfg.EmailFrom,
		fromName:     cfg.EmailFromName,
		ttl:          cfg.OTPTTL,
		timeout:      cfg.ProviderTimeout,
		contactDelay: cfg.EmailContactDelay,
		simulate:     cfg.SimulateEmail(),
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

func (m *mailer) SendOTP(ctx context.Context, to, code, lang string) (*Result, error) {
	if m.simulate {
		slog.Warn("email sending simulated", "to", to, "code", code)
		return &Result{Provider: "simulated", SimulatedCode: code}, nil
	}
	if m.provider == nil {
		return nil, &domain.DeliveryError{Channel: channel, Msg: MsgNotConfigured, Err: domain.ErrNotConfigured}
	}

	subject, html, text, err := renderOTP(lang, m.fromName, code, m.ttl, m.now())
	if err != nil {
		return nil, err
	}

	if ca, ok := m.provider.(ContactAdder); ok {
		go m.addContact(context.WithoutCancel(ctx), ca, to)
		// The provider allows two requests per second; space the contact
		// call and the send apart.
		if err := m.sleep(ctx, m.contactDelay); err != nil {
			return nil, &domain.DeliveryError{Channel: channel, Msg: err.Error(), Err: err}
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err = m.provider.Send(sendCtx, Message{
		From:     m.sender(),
		FromName: m.fromName,
		To:       to,
		Subject:  subject,
		HTML:     html,
		Text:     text,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return nil, &domain.DeliveryError{Channel: channel, Msg: MsgTimeout, Err: err}
		}
		return nil, &domain.DeliveryError{Channel: channel, Msg: rewriteProviderError(err), Err: err}
	}
	return &Result{Provider: m.provider.Name()}, nil
}

// sender returns the configured From address unless it is a personal mailbox
// the provider cannot send as, in which case the provider's sandbox sender is used.
func (m *mailer) sender() string {
	sandbox := m.provider.SandboxSender()
	if sandbox == "" {
		return m.from
	}
	if m.from == "" || isPersonalMailbox(m.from) {
		return sandbox
	}
	return m.from
}

// addContact runs off the request path; its failure is logged and never
// affects OTP delivery.
func (m *mailer) addContact(ctx context.Context, ca ContactAdder, to string) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	b := retry.WithMaxRetries(2, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := ca.AddContact(ctx, to); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Warn("failed to add email contact", "to", to, "err", err)
	}
}

func isPersonalMailbox(addr string) bool {
	_, domainPart, ok := strings.Cut(strings.ToLower(strings.TrimSpace(addr)), "@")
	if !ok {
		return false
	}
	for _, d := range personalMailboxDomains {
		if domainPart == d {
			return true
		}
	}
	return false
}

func rewriteProviderError(err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "domain is not verified"),
		strings.Contains(lower, "verified sender identity"):
		return MsgDomainNotReady
	case strings.Contains(lower, "only send testing emails"),
		strings.Contains(lower, "testing emails to your own email"):
		return MsgSandboxOnly
	default:
		return msg
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

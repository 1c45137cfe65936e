package otp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/infrastructure/email"
	"github.com/fuel-otp/internal/infrastructure/sns"
	"github.com/fuel-otp/internal/infrastructure/whatsapp"
	"github.com/fuel-otp/internal/pkg/phone"
	pkgtoken "github.com/fuel-otp/internal/pkg/token"
)

const smsTemplate = "Your FuelGo verification code is %s. It expires in %d minutes. Do not share this code."

// SendResult describes a delivered code. Code is only set when email sending
// was simulated in development.
type SendResult struct {
	Identity  string
	Channel   string
	Provider  string
	ExpiresAt time.Time
	Code      string
}

type Service interface {
	SendEmailOTP(ctx context.Context, email, lang string) (*SendResult, error)
	VerifyEmailOTP(ctx context.Context, email, code string) (Verdict, error)
	TestEmail(ctx context.Context, email string) (*SendResult, error)
	SendSMSOTP(ctx context.Context, phoneNumber string) (*SendResult, error)
	VerifySMSOTP(ctx context.Context, phoneNumber, code string) (Verdict, error)
	SendWhatsAppOTP(ctx context.Context, phoneNumber string) (*whatsapp.SendResponse, error)
	VerifyWhatsAppOTP(ctx context.Context, phoneNumber, code string) (*whatsapp.VerifyResponse, error)
}

type ServiceDeps struct {
	Store           domain.OTPStore
	Mailer          email.Mailer
	SMSSender       sns.SMSSender // nil disables the SMS channel
	Gateway         whatsapp.Gateway
	TTL             time.Duration
	ProviderTimeout time.Duration
	CountryCode     string
}

type service struct {
	store       domain.OTPStore
	verifier    *Verifier
	mailer      email.Mailer
	smsSender   sns.SMSSender
	gateway     whatsapp.Gateway
	ttl         time.Duration
	timeout     time.Duration
	countryCode string
}

func NewService(d ServiceDeps) Service {
	return &service{
		store:       d.Store,
		verifier:    NewVerifier(d.Store),
		mailer:      d.Mailer,
		smsSender:   d.SMSSender,
		gateway:     d.Gateway,
		ttl:         d.TTL,
		timeout:     d.ProviderTimeout,
		countryCode: d.CountryCode,
	}
}

// NormalizeEmail trims and lower-cases an address. The result is the store identity.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone applies the domestic dialing policy for countryCode.
func NormalizePhone(raw, countryCode string) (string, error) {
	p, err := phone.Normalize(raw, countryCode)
	if err != nil {
		return "", &domain.InputError{Field: "phoneNumber", Msg: err.Error()}
	}
	return p, nil
}

func (s *service) SendEmailOTP(ctx context.Context, addr, lang string) (*SendResult, error) {
	identity := NormalizeEmail(addr)
	rec, err := s.store.Issue(ctx, identity)
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = email.DefaultLanguage
	}
	res, err := s.mailer.SendOTP(ctx, identity, rec.Code, lang)
	if err != nil {
		slog.Warn("otp email delivery failed", "otp_id", rec.ID, "err", err)
		return nil, err
	}
	slog.Info("otp issued", "channel", "email", "otp_id", rec.ID, "provider", res.Provider)
	return &SendResult{
		Identity:  identity,
		Channel:   "email",
		Provider:  res.Provider,
		ExpiresAt: rec.ExpiresAt,
		Code:      res.SimulatedCode,
	}, nil
}

func (s *service) VerifyEmailOTP(ctx context.Context, addr, code string) (Verdict, error) {
	return s.verify(ctx, "email", NormalizeEmail(addr), code)
}

// TestEmail sends a sample OTP email without storing a code, to check the
// provider configuration end to end.
func (s *service) TestEmail(ctx context.Context, addr string) (*SendResult, error) {
	identity := NormalizeEmail(addr)
	code, err := pkgtoken.NewOTPCode()
	if err != nil {
		return nil, err
	}
	res, err := s.mailer.SendOTP(ctx, identity, code, email.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	return &SendResult{Identity: identity, Channel: "email", Provider: res.Provider, Code: res.SimulatedCode}, nil
}

func (s *service) SendSMSOTP(ctx context.Context, raw string) (*SendResult, error) {
	identity, err := NormalizePhone(raw, s.countryCode)
	if err != nil {
		return nil, err
	}
	if s.smsSender == nil {
		return nil, &domain.DeliveryError{Channel: "sms", Msg: "SMS service not configured", Err: domain.ErrNotConfigured}
	}
	rec, err := s.store.Issue(ctx, identity)
	if err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msg := fmt.Sprintf(smsTemplate, rec.Code, int(s.ttl/time.Minute))
	if err := s.smsSender.SendSMS(sendCtx, identity, msg); err != nil {
		slog.Warn("otp sms delivery failed", "otp_id", rec.ID, "err", err)
		return nil, &domain.DeliveryError{Channel: "sms", Msg: err.Error(), Err: err}
	}
	slog.Info("otp issued", "channel", "sms", "otp_id", rec.ID)
	return &SendResult{Identity: identity, Channel: "sms", Provider: "sns", ExpiresAt: rec.ExpiresAt}, nil
}

func (s *service) VerifySMSOTP(ctx context.Context, raw, code string) (Verdict, error) {
	identity, err := NormalizePhone(raw, s.countryCode)
	if err != nil {
		return Verdict{}, err
	}
	return s.verify(ctx, "sms", identity, code)
}

// SendWhatsAppOTP hands the normalized number to the gateway, which owns the code.
func (s *service) SendWhatsAppOTP(ctx context.Context, raw string) (*whatsapp.SendResponse, error) {
	identity, err := NormalizePhone(raw, s.countryCode)
	if err != nil {
		return nil, err
	}
	return s.gateway.Send(ctx, identity)
}

func (s *service) VerifyWhatsAppOTP(ctx context.Context, raw, code string) (*whatsapp.VerifyResponse, error) {
	identity, err := NormalizePhone(raw, s.countryCode)
	if err != nil {
		return nil, err
	}
	return s.gateway.Verify(ctx, identity, code)
}

func (s *service) verify(ctx context.Context, ch, identity, code string) (Verdict, error) {
	v, err := s.verifier.Check(ctx, identity, code)
	if err != nil {
		return Verdict{}, fmt.Errorf("verify %s otp: %w", ch, err)
	}
	if !v.IsValid {
		slog.Info("otp rejected", "channel", ch, "reason", v.Message)
	}
	return v, nil
}

package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/infrastructure/email"
	"github.com/fuel-otp/internal/infrastructure/memory"
	"github.com/fuel-otp/internal/infrastructure/whatsapp"
	"github.com/fuel-otp/internal/pkg/clock"
)

// --- mocks ---

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendOTP(ctx context.Context, to, code, lang string) (*email.Result, error) {
	args := m.Called(ctx, to, code, lang)
	if r, _ := args.Get(0).(*email.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Send(ctx context.Context, phone string) (*whatsapp.SendResponse, error) {
	args := m.Called(ctx, phone)
	if r, _ := args.Get(0).(*whatsapp.SendResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, phone, code string) (*whatsapp.VerifyResponse, error) {
	args := m.Called(ctx, phone, code)
	if r, _ := args.Get(0).(*whatsapp.VerifyResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type failingStore struct{}

func (failingStore) Issue(context.Context, string) (*domain.OTPRecord, error) {
	return nil, errors.New("store down")
}
func (failingStore) Verify(context.Context, string, string) (domain.VerifyResult, error) {
	return domain.VerifyNotFound, errors.New("store down")
}

// --- builder ---

type fixture struct {
	svc     Service
	clk     *clock.Fake
	mailer  *mockMailer
	sms     *mockSMSSender
	gateway *mockGateway
	codes   map[string]string // identity -> last code handed to a channel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clk:     clock.NewFake(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)),
		mailer:  &mockMailer{},
		sms:     &mockSMSSender{},
		gateway: &mockGateway{},
		codes:   make(map[string]string),
	}
	f.svc = NewService(ServiceDeps{
		Store:           memory.NewOTPStore(5*time.Minute, f.clk),
		Mailer:          f.mailer,
		SMSSender:       f.sms,
		Gateway:         f.gateway,
		TTL:             5 * time.Minute,
		ProviderTimeout: time.Second,
		CountryCode:     "62",
	})
	return f
}

// captureEmail makes the mock mailer succeed and remember the code it was given.
func (f *fixture) captureEmail() {
	f.mailer.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { f.codes[args.String(1)] = args.String(2) }).
		Return(&email.Result{Provider: "mock"}, nil)
}

// --- email ---

func TestSendEmailOTP_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.captureEmail()
	ctx := context.Background()

	res, err := f.svc.SendEmailOTP(ctx, "user@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", res.Identity)
	assert.Equal(t, f.clk.Now().Add(5*time.Minute), res.ExpiresAt)
	code := f.codes["user@example.com"]
	assert.Regexp(t, `^[0-9]{6}$`, code)

	v, err := f.svc.VerifyEmailOTP(ctx, "USER@EXAMPLE.COM ", code)
	require.NoError(t, err)
	assert.Equal(t, Verdict{IsValid: true, Message: MsgVerified}, v)

	v, err = f.svc.VerifyEmailOTP(ctx, "USER@EXAMPLE.COM ", code)
	require.NoError(t, err)
	assert.Equal(t, Verdict{IsValid: false, Message: "OTP not found"}, v)
}

func TestSendEmailOTP_NormalizesIdentity(t *testing.T) {
	f := newFixture(t)
	f.captureEmail()
	ctx := context.Background()

	_, err := f.svc.SendEmailOTP(ctx, " Foo@Bar.COM ", "en")
	require.NoError(t, err)
	f.mailer.AssertCalled(t, "SendOTP", mock.Anything, "foo@bar.com", mock.Anything, "en")

	v, err := f.svc.VerifyEmailOTP(ctx, "foo@bar.com", f.codes["foo@bar.com"])
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}

func TestSendEmailOTP_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	deliveryErr := &domain.DeliveryError{Channel: "email", Msg: email.MsgNotConfigured, Err: domain.ErrNotConfigured}
	f.mailer.On("SendOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, deliveryErr)

	_, err := f.svc.SendEmailOTP(context.Background(), "a@b.com", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.Equal(t, email.MsgNotConfigured, err.Error())
}

func TestSendEmailOTP_SimulatedCodeReturned(t *testing.T) {
	f := newFixture(t)
	f.mailer.On("SendOTP", mock.Anything, "a@b.com", mock.Anything, mock.Anything).
		Return(&email.Result{Provider: "simulated", SimulatedCode: "123456"}, nil)

	res, err := f.svc.SendEmailOTP(context.Background(), "a@b.com", "")
	require.NoError(t, err)
	assert.Equal(t, "123456", res.Code)
}

func TestVerifyEmailOTP_Expired(t *testing.T) {
	f := newFixture(t)
	f.captureEmail()
	ctx := context.Background()
	_, err := f.svc.SendEmailOTP(ctx, "a@b.com", "")
	require.NoError(t, err)

	f.clk.Advance(5 * time.Minute)
	v, err := f.svc.VerifyEmailOTP(ctx, "a@b.com", f.codes["a@b.com"])
	require.NoError(t, err)
	assert.Equal(t, Verdict{Message: MsgExpired}, v)
}

func TestVerifyEmailOTP_MismatchThenValid(t *testing.T) {
	f := newFixture(t)
	f.captureEmail()
	ctx := context.Background()
	_, err := f.svc.SendEmailOTP(ctx, "a@b.com", "")
	require.NoError(t, err)
	code := f.codes["a@b.com"]
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}

	v, err := f.svc.VerifyEmailOTP(ctx, "a@b.com", wrong)
	require.NoError(t, err)
	assert.Equal(t, Verdict{Message: MsgMismatch}, v)

	v, err = f.svc.VerifyEmailOTP(ctx, "a@b.com", code)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}

func TestVerifyEmailOTP_ReissueInvalidatesFirstCode(t *testing.T) {
	f := newFixture(t)
	f.captureEmail()
	ctx := context.Background()
	_, err := f.svc.SendEmailOTP(ctx, "a@b.com", "")
	require.NoError(t, err)
	first := f.codes["a@b.com"]
	_, err = f.svc.SendEmailOTP(ctx, "a@b.com", "")
	require.NoError(t, err)
	second := f.codes["a@b.com"]

	if first != second {
		v, err := f.svc.VerifyEmailOTP(ctx, "a@b.com", first)
		require.NoError(t, err)
		assert.False(t, v.IsValid)
	}
	v, err := f.svc.VerifyEmailOTP(ctx, "a@b.com", second)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}

func TestVerifyEmailOTP_StoreError(t *testing.T) {
	svc := NewService(ServiceDeps{Store: failingStore{}})
	_, err := svc.VerifyEmailOTP(context.Background(), "a@b.com", "123456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestTestEmail_DoesNotStoreCode(t *testing.T) {
	f := newFixture(t)
	f.captureEmail()
	ctx := context.Background()

	res, err := f.svc.TestEmail(ctx, " A@B.com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", res.Identity)

	v, err := f.svc.VerifyEmailOTP(ctx, "a@b.com", f.codes["a@b.com"])
	require.NoError(t, err)
	assert.Equal(t, MsgNotFound, v.Message)
}

// --- sms ---

func TestSendSMSOTP_NormalizesAndVerifies(t *testing.T) {
	f := newFixture(t)
	var sent string
	f.sms.On("SendSMS", mock.Anything, "+6281234567890", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.String(2) }).
		Return(nil)
	ctx := context.Background()

	res, err := f.svc.SendSMSOTP(ctx, "0812-3456-7890")
	require.NoError(t, err)
	assert.Equal(t, "+6281234567890", res.Identity)
	assert.Contains(t, sent, "expires in 5 minutes")

	code := sent[len("Your FuelGo verification code is ") : len("Your FuelGo verification code is ")+6]
	v, err := f.svc.VerifySMSOTP(ctx, "+62 812 3456 7890", code)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}

func TestSendSMSOTP_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SendSMSOTP(context.Background(), "12ab")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	f.sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendSMSOTP_NotConfigured(t *testing.T) {
	svc := NewService(ServiceDeps{Store: memory.NewOTPStore(time.Minute, nil), CountryCode: "62"})
	_, err := svc.SendSMSOTP(context.Background(), "081234567890")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestSendSMSOTP_ProviderError(t *testing.T) {
	f := newFixture(t)
	f.sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("throttled"))
	_, err := f.svc.SendSMSOTP(context.Background(), "081234567890")
	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.EqualError(t, err, "throttled")
}

// --- whatsapp ---

func TestSendWhatsAppOTP_NormalizesBeforeHandoff(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("Send", mock.Anything, "+6281234567890").Return(&whatsapp.SendResponse{Success: true}, nil)

	res, err := f.svc.SendWhatsAppOTP(context.Background(), "081234567890")
	require.NoError(t, err)
	assert.True(t, res.Success)
	f.gateway.AssertExpectations(t)
}

func TestVerifyWhatsAppOTP(t *testing.T) {
	f := newFixture(t)
	f.gateway.On("Verify", mock.Anything, "+6281234567890", "123456").Return(&whatsapp.VerifyResponse{Success: true}, nil)

	res, err := f.svc.VerifyWhatsAppOTP(context.Background(), "6281234567890", "123456")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestVerifyWhatsAppOTP_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.VerifyWhatsAppOTP(context.Background(), "", "123456")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

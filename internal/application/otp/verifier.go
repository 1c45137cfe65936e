package otp

import (
	"context"

	"github.com/fuel-otp/internal/domain"
)

// Verdict messages. Callers branch on IsValid only.
const (
	MsgVerified = "OTP verified successfully"
	MsgNotFound = "OTP not found"
	MsgExpired  = "OTP has expired"
	MsgMismatch = "Invalid OTP"
)

// Verdict is the caller-facing outcome of a verification.
type Verdict struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// Verifier turns store results into verdicts so handlers never see store
// result kinds.
type Verifier struct {
	store domain.OTPStore
}

func NewVerifier(store domain.OTPStore) *Verifier {
	return &Verifier{store: store}
}

// Check verifies code for identity. A store failure is returned as an error,
// never as an invalid verdict.
func (v *Verifier) Check(ctx context.Context, identity, code string) (Verdict, error) {
	res, err := v.store.Verify(ctx, identity, code)
	if err != nil {
		return Verdict{}, err
	}
	return verdictFor(res), nil
}

func verdictFor(res domain.VerifyResult) Verdict {
	switch res {
	case domain.VerifyValid:
		return Verdict{IsValid: true, Message: MsgVerified}
	case domain.VerifyExpired:
		return Verdict{Message: MsgExpired}
	case domain.VerifyMismatch:
		return Verdict{Message: MsgMismatch}
	default:
		return Verdict{Message: MsgNotFound}
	}
}

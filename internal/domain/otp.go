package domain

import (
	"context"
	"time"
)

// OTPRecord is the single outstanding one-time code for an identity.
// Identity is a normalized email address or phone number.
type OTPRecord struct {
	ID        string    `json:"id" dynamodbav:"id"`
	Identity  string    `json:"identity" dynamodbav:"identity"`
	Code      string    `json:"-" dynamodbav:"code"`
	IssuedAt  time.Time `json:"issued_at" dynamodbav:"-"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"-"`
}

// Expired reports whether the record is no longer live at now.
func (r *OTPRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// VerifyResult is the outcome of checking a supplied code against the store.
type VerifyResult int

const (
	VerifyValid VerifyResult = iota
	VerifyNotFound
	VerifyExpired
	VerifyMismatch
)

func (v VerifyResult) String() string {
	switch v {
	case VerifyValid:
		return "VALID"
	case VerifyNotFound:
		return "NOT_FOUND"
	case VerifyExpired:
		return "EXPIRED"
	case VerifyMismatch:
		return "MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// OTPStore owns every OTPRecord. Issue overwrites any record for the identity;
// Verify checks and deletes atomically per identity (deleted on VerifyValid and
// VerifyExpired, kept on VerifyMismatch).
type OTPStore interface {
	Issue(ctx context.Context, identity string) (*OTPRecord, error)
	Verify(ctx context.Context, identity, code string) (VerifyResult, error)
}

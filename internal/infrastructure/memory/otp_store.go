package memory

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/pkg/clock"
	"github.com/fuel-otp/internal/pkg/id"
	"github.com/fuel-otp/internal/pkg/token"
)

// OTPStore is a process-local OTP store. State is lost on restart and is not
// shared between instances; use the redis or dynamo store for that.
// Expiry is enforced lazily on every access; Run adds a periodic sweep.
type OTPStore struct {
	mu       sync.Mutex
	records  map[string]domain.OTPRecord
	ttl      time.Duration
	clock    clock.Clocker
	generate func() (string, error)
}

func NewOTPStore(ttl time.Duration, clk clock.Clocker) *OTPStore {
	if clk == nil {
		clk = clock.New()
	}
	return &OTPStore{
		records:  make(map[string]domain.OTPRecord),
		ttl:      ttl,
		clock:    clk,
		generate: token.NewOTPCode,
	}
}

// Issue generates a new code for identity, replacing any outstanding one.
func (s *OTPStore) Issue(_ context.Context, identity string) (*domain.OTPRecord, error) {
	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("issue otp: %w", err)
	}
	now := s.clock.Now()
	rec := domain.OTPRecord{
		ID:        id.New(now),
		Identity:  identity,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.records[identity] = rec
	s.mu.Unlock()

	return &rec, nil
}

// Verify checks code against the live record for identity. The lookup, expiry
// check and delete run under one lock so a code can succeed only once.
func (s *OTPStore) Verify(_ context.Context, identity, code string) (domain.VerifyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[identity]
	if !ok {
		return domain.VerifyNotFound, nil
	}
	if rec.Expired(s.clock.Now()) {
		delete(s.records, identity)
		return domain.VerifyExpired, nil
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return domain.VerifyMismatch, nil
	}
	delete(s.records, identity)
	return domain.VerifyValid, nil
}

// Sweep removes every expired record and returns how many were dropped.
func (s *OTPStore) Sweep() int {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, k)
			n++
		}
	}
	return n
}

// Len returns the number of records held, live or not yet swept.
func (s *OTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Run sweeps expired records every interval until ctx is done.
func (s *OTPStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("swept expired otp records", "count", n)
			}
		}
	}
}

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/pkg/clock"
	"github.com/fuel-otp/internal/pkg/id"
	"github.com/fuel-otp/internal/pkg/token"
)

const keyPrefix = "otp:"

// verify results returned by verifyScript.
const (
	scriptNotFound = 0
	scriptValid    = 1
	scriptExpired  = 2
	scriptMismatch = 3
)

// verifyScript runs the lookup, expiry check and delete as one Redis command
// so concurrent verifications of the same code cannot both succeed.
// KEYS[1] = record key, ARGV[1] = supplied code, ARGV[2] = now (unix ms).
var verifyScript = goredis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
  return 0
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if exp and tonumber(ARGV[2]) >= exp then
  redis.call('DEL', KEYS[1])
  return 2
end
if code ~= ARGV[1] then
  return 3
end
redis.call('DEL', KEYS[1])
return 1
`)

// OTPStore keeps one hash per identity with a key TTL equal to the code TTL,
// so Redis removes records nobody verifies.
type OTPStore struct {
	client   *goredis.Client
	ttl      time.Duration
	clock    clock.Clocker
	generate func() (string, error)
}

func NewOTPStore(client *goredis.Client, ttl time.Duration, clk clock.Clocker) *OTPStore {
	if clk == nil {
		clk = clock.New()
	}
	return &OTPStore{client: client, ttl: ttl, clock: clk, generate: token.NewOTPCode}
}

func key(identity string) string { return keyPrefix + identity }

func (s *OTPStore) Issue(ctx context.Context, identity string) (*domain.OTPRecord, error) {
	code, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("issue otp: %w", err)
	}
	now := s.clock.Now()
	rec := &domain.OTPRecord{
		ID:        id.New(now),
		Identity:  identity,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	k := key(identity)
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k,
			"id", rec.ID,
			"code", rec.Code,
			"issued_at", strconv.FormatInt(rec.IssuedAt.UnixMilli(), 10),
			"expires_at", strconv.FormatInt(rec.ExpiresAt.UnixMilli(), 10),
		)
		p.PExpire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	return rec, nil
}

func (s *OTPStore) Verify(ctx context.Context, identity, code string) (domain.VerifyResult, error) {
	n, err := verifyScript.Run(ctx, s.client, []string{key(identity)}, code, s.clock.Now().UnixMilli()).Int()
	if err != nil {
		return domain.VerifyNotFound, fmt.Errorf("verify otp: %w", err)
	}
	switch n {
	case scriptValid:
		return domain.VerifyValid, nil
	case scriptExpired:
		return domain.VerifyExpired, nil
	case scriptMismatch:
		return domain.VerifyMismatch, nil
	default:
		return domain.VerifyNotFound, nil
	}
}

package dynamo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/pkg/clock"
)

// fakeDynamo evaluates the two condition expressions OTPStore issues.
type fakeDynamo struct {
	mu      sync.Mutex
	items   map[string]map[string]types.AttributeValue
	failErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := in.Item[fieldIdentity].(*types.AttributeValueMemberS).Value
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	id := in.Key[fieldIdentity].(*types.AttributeValueMemberS).Value
	item, ok := f.items[id]
	now := num(in.ExpressionAttributeValues[":now"])
	var pass bool
	if ok {
		exp := num(item[fieldExpiresAtMs])
		switch *in.ConditionExpression {
		case condConsume:
			code := in.ExpressionAttributeValues[":code"].(*types.AttributeValueMemberS).Value
			pass = item[fieldCode].(*types.AttributeValueMemberS).Value == code && exp > now
		case condExpired:
			pass = exp <= now
		}
	}
	if !pass {
		ccf := &types.ConditionalCheckFailedException{}
		if ok && in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
			ccf.Item = item
		}
		return nil, ccf
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func num(av types.AttributeValue) int64 {
	n, _ := strconv.ParseInt(av.(*types.AttributeValueMemberN).Value, 10, 64)
	return n
}

func newStore() (*OTPStore, *fakeDynamo, *clock.Fake) {
	fd := newFakeDynamo()
	clk := clock.NewFake(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	return NewOTPStore(fd, "otp_codes", 5*time.Minute, clk), fd, clk
}

func TestIssue_PutsItemWithTTL(t *testing.T) {
	s, fd, clk := newStore()
	rec, err := s.Issue(context.Background(), "a@b.com")
	require.NoError(t, err)

	item := fd.items["a@b.com"]
	require.NotNil(t, item)
	assert.Equal(t, clk.Now().Add(5*time.Minute).Unix(), num(item[fieldExpiresAt]))
	assert.Equal(t, rec.ExpiresAt.UnixMilli(), num(item[fieldExpiresAtMs]))

	got, err := unmarshalItem(item)
	require.NoError(t, err)
	assert.Equal(t, rec.Code, got.record().Code)
	assert.True(t, rec.ExpiresAt.Equal(got.record().ExpiresAt))
}

func TestVerify_Valid_ThenNotFound(t *testing.T) {
	s, _, _ := newStore()
	ctx := context.Background()
	rec, err := s.Issue(ctx, "a@b.com")
	require.NoError(t, err)

	res, err := s.Verify(ctx, "a@b.com", rec.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyValid, res)

	res, err = s.Verify(ctx, "a@b.com", rec.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyNotFound, res)
}

func TestVerify_MismatchKeepsItem(t *testing.T) {
	s, fd, _ := newStore()
	s.generate = func() (string, error) { return "987654", nil }
	ctx := context.Background()
	_, err := s.Issue(ctx, "a@b.com")
	require.NoError(t, err)

	res, err := s.Verify(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyMismatch, res)
	assert.Contains(t, fd.items, "a@b.com")
}

func TestVerify_ExpiredDeletesItem(t *testing.T) {
	s, fd, clk := newStore()
	ctx := context.Background()
	rec, err := s.Issue(ctx, "a@b.com")
	require.NoError(t, err)

	clk.Advance(6 * time.Minute)
	res, err := s.Verify(ctx, "a@b.com", rec.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyExpired, res)
	assert.NotContains(t, fd.items, "a@b.com")
}

func TestVerify_ExpiryBoundaryWinsOverMismatch(t *testing.T) {
	s, fd, clk := newStore()
	ctx := context.Background()
	rec, err := s.Issue(ctx, "a@b.com")
	require.NoError(t, err)
	wrong := "100000"
	if rec.Code == wrong {
		wrong = "100001"
	}

	clk.Advance(5 * time.Minute)
	res, err := s.Verify(ctx, "a@b.com", wrong)
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyExpired, res)
	assert.NotContains(t, fd.items, "a@b.com")
}

func TestVerify_ClientError(t *testing.T) {
	s, fd, _ := newStore()
	fd.failErr = errors.New("throttled")
	_, err := s.Verify(context.Background(), "a@b.com", "123456")
	assert.Error(t, err)
}

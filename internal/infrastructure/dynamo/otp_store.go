package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fuel-otp/internal/domain"
	"github.com/fuel-otp/internal/pkg/clock"
	"github.com/fuel-otp/internal/pkg/id"
	"github.com/fuel-otp/internal/pkg/token"
)

// Condition expressions for the single-item writes OTPStore relies on.
const (
	condConsume = "#code = :code AND #exp > :now"
	condExpired = "#exp <= :now"
)

// OTPStore keeps one item per identity (PK: identity). DynamoDB TTL on
// expires_at removes abandoned records; every check uses a conditional write
// so two instances cannot both consume the same code.
type OTPStore struct {
	client    API
	tableName string
	ttl       time.Duration
	clock     clock.Clocker
	generate  func() (string, error)
}

func NewOTPStore(client API, tableName string, ttl time.Duration, clk clock.Clocker) *OTPStore {
	if clk == nil {
		clk = clock.New()
	}
	return &OTPStore{client: client, tableName: tableName, ttl: ttl, clock: clk, generate: token.NewOTPCode}
}

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
	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return nil, fmt.Errorf("marshal otp: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put otp: %w", err)
	}
	return rec, nil
}

// Verify deletes the item only if the code matches and it is still live. When
// that condition fails the old item tells us whether it was missing, expired
// or a mismatch; expired items are then removed with a second conditional delete.
func (s *OTPStore) Verify(ctx context.Context, identity, code string) (domain.VerifyResult, error) {
	at := s.clock.Now()
	now := at.UnixMilli()
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 strKey(fieldIdentity, identity),
		ConditionExpression: aws.String(condConsume),
		ExpressionAttributeNames: map[string]string{
			"#code": fieldCode,
			"#exp":  fieldExpiresAtMs,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":code": &types.AttributeValueMemberS{Value: code},
			":now":  numValue(now),
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return domain.VerifyValid, nil
	}

	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return domain.VerifyNotFound, fmt.Errorf("verify otp: %w", err)
	}
	old, err := unmarshalItem(ccf.Item)
	if err != nil {
		return domain.VerifyNotFound, fmt.Errorf("unmarshal otp: %w", err)
	}
	if old == nil {
		return domain.VerifyNotFound, nil
	}
	if old.record().Expired(at) {
		if err := s.deleteExpired(ctx, identity, now); err != nil {
			return domain.VerifyExpired, err
		}
		return domain.VerifyExpired, nil
	}
	return domain.VerifyMismatch, nil
}

// deleteExpired removes the item only if it is still expired, so a code
// reissued in between is left alone.
func (s *OTPStore) deleteExpired(ctx context.Context, identity string, now int64) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      strKey(fieldIdentity, identity),
		ConditionExpression:      aws.String(condExpired),
		ExpressionAttributeNames: map[string]string{"#exp": fieldExpiresAtMs},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": numValue(now),
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if err != nil && !errors.As(err, &ccf) {
		return fmt.Errorf("delete expired otp: %w", err)
	}
	return nil
}

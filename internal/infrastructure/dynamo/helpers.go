package dynamo

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fuel-otp/internal/domain"
)

// otpItem is the stored form of a domain.OTPRecord. expires_at is second
// precision for DynamoDB TTL; expiry checks use expires_at_ms.
type otpItem struct {
	Identity    string `dynamodbav:"identity"`
	ID          string `dynamodbav:"id"`
	Code        string `dynamodbav:"code"`
	IssuedAtMs  int64  `dynamodbav:"issued_at_ms"`
	ExpiresAtMs int64  `dynamodbav:"expires_at_ms"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`
}

func toItem(r *domain.OTPRecord) otpItem {
	return otpItem{
		Identity:    r.Identity,
		ID:          r.ID,
		Code:        r.Code,
		IssuedAtMs:  r.IssuedAt.UnixMilli(),
		ExpiresAtMs: r.ExpiresAt.UnixMilli(),
		ExpiresAt:   r.ExpiresAt.Unix(),
	}
}

func (it otpItem) record() *domain.OTPRecord {
	return &domain.OTPRecord{
		ID:        it.ID,
		Identity:  it.Identity,
		Code:      it.Code,
		IssuedAt:  time.UnixMilli(it.IssuedAtMs),
		ExpiresAt: time.UnixMilli(it.ExpiresAtMs),
	}
}

func unmarshalItem(m map[string]types.AttributeValue) (*otpItem, error) {
	if len(m) == 0 {
		return nil, nil
	}
	var it otpItem
	if err := attributevalue.UnmarshalMap(m, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

func numValue(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

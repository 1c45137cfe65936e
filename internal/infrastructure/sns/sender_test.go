package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSendSMS_Transactional(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		attr, ok := in.MessageAttributes["AWS.SNS.SMS.SMSType"]
		return *in.PhoneNumber == "+6281234567890" &&
			*in.Message == "code 123456" &&
			ok && *attr.StringValue == "Transactional"
	})).Return(&sns.PublishOutput{}, nil)

	err := NewSenderWithClient(pub).SendSMS(context.Background(), "+6281234567890", "code 123456")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestSendSMS_Error(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewSenderWithClient(pub).SendSMS(context.Background(), "+6281234567890", "x")
	assert.EqualError(t, err, "throttled")
}

package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

func TestSNSClient_PublishMessage(t *testing.T) {
	fake := &fakePublisher{}
	client := NewSNSClientWith(fake)

	id, err := client.PublishMessage(context.Background(), "arn:aws:sns:us-east-1:1:results", "summaries", "body")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:results", awssdk.ToString(fake.input.TopicArn))
	assert.Equal(t, "summaries", awssdk.ToString(fake.input.Subject))
	assert.Equal(t, "body", awssdk.ToString(fake.input.Message))
}

func TestSNSClient_PublishError(t *testing.T) {
	client := NewSNSClientWith(&fakePublisher{err: errors.New("throttled")})
	_, err := client.PublishMessage(context.Background(), "arn", "s", "m")
	assert.ErrorContains(t, err, "throttled")
}

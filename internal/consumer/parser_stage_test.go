package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func drain(t *testing.T, out <-chan *Envelope) []*Envelope {
	t.Helper()

	var envelopes []*Envelope
	timeout := time.After(time.Second)
	for {
		select {
		case env, ok := <-out:
			if !ok {
				return envelopes
			}
			envelopes = append(envelopes, env)
		case <-timeout:
			t.Fatal("parser stage did not close its output")
			return nil
		}
	}
}

func TestParserStage_Start_Success(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockChangeParser)
	stage := NewParserStage(mockConsumer, mockParser, zap.NewNop())

	body := `{"op":"upsert"}`
	mockParser.On("Parse", []byte(body)).Return(testChange("event-1"), nil)
	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.MatchedBy(func(in *sqs.DeleteMessageInput) bool {
		return aws.ToString(in.ReceiptHandle) == "receipt-1" && aws.ToString(in.QueueUrl) == testQueueURL
	})).Return(&sqs.DeleteMessageOutput{}, nil)

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)
	in <- types.Message{MessageId: aws.String("msg-1"), Body: aws.String(body), ReceiptHandle: aws.String("receipt-1")}
	close(in)

	stage.Start(context.Background(), in, out)
	envelopes := drain(t, out)

	require.Len(t, envelopes, 1)
	assert.Equal(t, "event-1", envelopes[0].Change.Event.ID)

	// Not deleted until acked
	mockConsumer.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything)

	require.NoError(t, envelopes[0].Ack(context.Background()))
	require.NoError(t, envelopes[0].Nack(context.Background()))
	mockConsumer.AssertNumberOfCalls(t, "DeleteMessage", 1)
	mockParser.AssertExpectations(t)
}

func TestParserStage_Start_MalformedMessageDeleted(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockChangeParser)
	stage := NewParserStage(mockConsumer, mockParser, zap.NewNop())

	mockParser.On("Parse", []byte(`{invalid}`)).Return(nil, errors.New("invalid JSON"))
	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.Anything).Return(&sqs.DeleteMessageOutput{}, nil)

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)
	in <- types.Message{MessageId: aws.String("msg-1"), Body: aws.String(`{invalid}`), ReceiptHandle: aws.String("receipt-1")}
	close(in)

	stage.Start(context.Background(), in, out)

	assert.Empty(t, drain(t, out))
	mockConsumer.AssertNumberOfCalls(t, "DeleteMessage", 1)
	mockParser.AssertExpectations(t)
}

func TestParserStage_Start_DeleteFailureIsSwallowed(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockParser := new(MockChangeParser)
	stage := NewParserStage(mockConsumer, mockParser, zap.NewNop())

	mockParser.On("Parse", mock.Anything).Return(nil, errors.New("invalid JSON"))
	mockConsumer.On("QueueURL").Return(testQueueURL)
	mockConsumer.On("DeleteMessage", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	in := make(chan types.Message, 2)
	out := make(chan *Envelope, 2)
	in <- types.Message{MessageId: aws.String("msg-1"), Body: aws.String(`x`), ReceiptHandle: aws.String("r1")}
	in <- types.Message{MessageId: aws.String("msg-2"), Body: aws.String(`y`), ReceiptHandle: aws.String("r2")}
	close(in)

	stage.Start(context.Background(), in, out)

	assert.Empty(t, drain(t, out))
	mockConsumer.AssertNumberOfCalls(t, "DeleteMessage", 2)
}

func TestParserStage_Start_ContextCancellation(t *testing.T) {
	stage := NewParserStage(new(MockQueueConsumer), new(MockChangeParser), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := make(chan types.Message)
	out := make(chan *Envelope, 1)

	stage.Start(ctx, in, out)

	_, ok := <-out
	assert.False(t, ok, "output channel should be closed after cancellation")
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSender writes messages to a queue; a separate worker owns delivery.
type SQSSender struct {
	client   sqsAPI
	queueURL string
}

func NewSQSSender(client *sqs.Client, queueURL string) *SQSSender {
	return &SQSSender{client: client, queueURL: queueURL}
}

var _ Sender = (*SQSSender)(nil)

func (s *SQSSender) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message for SQS: %w", err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"audience": {DataType: aws.String("String"), StringValue: aws.String(string(m.Audience))},
			"entity":   {DataType: aws.String("String"), StringValue: aws.String(string(m.Entity))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}
	return nil
}

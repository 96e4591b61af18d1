package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// PublishAPI is the subset of the SNS client used to send notifications
type PublishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Message is a deploy notification
type Message struct {
	Subject    string
	Body       string
	Attributes map[string]string // Sent as String message attributes
}

// Notifier publishes deploy notifications to a single topic
type Notifier struct {
	client   PublishAPI
	topicArn string
}

// New creates a Notifier for topicArn
func New(client PublishAPI, topicArn string) *Notifier {
	return &Notifier{
		client:   client,
		topicArn: topicArn,
	}
}

// Publish sends msg and returns the SNS message id
func (n *Notifier) Publish(ctx context.Context, msg Message) (string, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Message:  aws.String(msg.Body),
	}
	// SNS rejects an empty subject
	if msg.Subject != "" {
		input.Subject = aws.String(msg.Subject)
	}
	if len(msg.Attributes) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(msg.Attributes))
		for k, v := range msg.Attributes {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}

	result, err := n.client.Publish(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", n.topicArn, err)
	}
	return aws.ToString(result.MessageId), nil
}

package notify

//go:generate mockgen -destination=../mocks/mock_sqs.go -package=mocks github.com/cyphera/cyphera-permissions/internal/notify SQSAPI

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"go.uber.org/zap"
)

// SQSAPI is the part of the SQS client the notifier uses
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// OriginEvent is the message body published for every notification
type OriginEvent struct {
	Origin       string                `json:"origin"`
	Notification business.Notification `json:"notification"`
}

// SQSNotifier publishes notifications to an SQS queue for delivery by a
// downstream consumer
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
	logger   *zap.Logger
}

// NewSQSNotifier creates an SQS notifier
func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{
		client:   client,
		queueURL: queueURL,
		logger:   logger.ForComponent(logger.ComponentNotifications),
	}
}

// NotifyOrigin sends the notification as one SQS message
func (n *SQSNotifier) NotifyOrigin(ctx context.Context, origin string, notification business.Notification) error {
	body, err := json.Marshal(OriginEvent{Origin: origin, Notification: notification})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	out, err := n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"Origin": {
				StringValue: aws.String(origin),
				DataType:    aws.String("String"),
			},
			"Method": {
				StringValue: aws.String(notification.Method),
				DataType:    aws.String("String"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	n.logger.Debug("Queued notification",
		zap.String("origin", origin),
		zap.String("method", notification.Method),
		zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

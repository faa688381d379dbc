package callrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const callCompletedEvent = "call.completed"

// SQSAPI is the subset of the SQS client used by EventPublisher.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// CallCompleted is the event body sent when a call ends.
type CallCompleted struct {
	Type          string    `json:"type"`
	CallSID       string    `json:"call_sid"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Outcome       Status    `json:"outcome"`
	Language      string    `json:"language"`
	Intent        string    `json:"intent,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Turns         int       `json:"turns"`
	ArchiveKey    string    `json:"archive_key,omitempty"`
	EndedAt       time.Time `json:"ended_at"`
}

// EventPublisher announces call outcomes on an SQS queue.
type EventPublisher struct {
	client   SQSAPI
	queueURL string
}

func NewEventPublisher(client SQSAPI, queueURL string) *EventPublisher {
	return &EventPublisher{client: client, queueURL: queueURL}
}

// Enabled reports whether a queue is configured.
func (p *EventPublisher) Enabled() bool {
	return p != nil && p.client != nil && p.queueURL != ""
}

// PublishCompleted sends a call.completed event.
func (p *EventPublisher) PublishCompleted(ctx context.Context, s Summary, archiveKey string) error {
	if !p.Enabled() {
		return nil
	}
	body, err := json.Marshal(CallCompleted{
		Type:          callCompletedEvent,
		CallSID:       s.CallSID,
		CustomerPhone: s.CustomerPhone,
		Outcome:       s.Outcome,
		Language:      s.Language,
		Intent:        s.Intent,
		Reason:        s.Reason,
		Turns:         len(s.Turns),
		ArchiveKey:    archiveKey,
		EndedAt:       s.EndedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("callrecord: marshal event: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(callCompletedEvent)},
		},
	})
	if err != nil {
		return fmt.Errorf("callrecord: send event: %w", err)
	}
	return nil
}

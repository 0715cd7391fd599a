package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/jacentio/entrymodel/model"
)

// DefaultSource is the EventBridge source of published events.
const DefaultSource = "entrymodel"

// EventBridgeAPI is the subset of the EventBridge client used by EventBridge.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

var _ EventBridgeAPI = (*eventbridge.Client)(nil)

// EventBridge publishes model events to an EventBridge bus.
type EventBridge struct {
	client       EventBridgeAPI
	eventBusName string
	source       string
	logger       *zap.Logger
	now          func() time.Time
}

// NewEventBridge creates a publisher for the named bus.
func NewEventBridge(client EventBridgeAPI, eventBusName string, logger *zap.Logger) *EventBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBridge{
		client:       client,
		eventBusName: eventBusName,
		source:       DefaultSource,
		logger:       logger,
		now:          time.Now,
	}
}

// WithSource overrides the event source.
func (p *EventBridge) WithSource(source string) *EventBridge {
	p.source = source
	return p
}

// DetailType returns the detail type an event is published under, for
// example "user.create".
func DetailType(ev model.Event) string {
	return ev.ModelName + "." + string(ev.ActionType)
}

// Publish sends one event to the bus.
func (p *EventBridge) Publish(ctx context.Context, ev model.Event) error {
	detail, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(DetailType(ev)),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(p.now()),
		}},
	})
	if err != nil {
		return fmt.Errorf("publish event to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("failed to publish event",
					zap.String("detailType", DetailType(ev)),
					zap.String("id", ev.ID),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("event published",
		zap.String("detailType", DetailType(ev)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

// Callback returns Publish as a model.Callback.
func (p *EventBridge) Callback() model.Callback {
	return p.Publish
}

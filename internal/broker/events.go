package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"apparel-order-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderReceived publishes OrderReceived event
func (ep *EventPublisher) PublishOrderReceived(ctx context.Context, event *models.OrderReceivedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishOrderDeleted publishes OrderDeleted event
func (ep *EventPublisher) PublishOrderDeleted(ctx context.Context, event *models.OrderDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderID, event)
}

// PublishBatchSubmitted publishes BatchSubmitted event
func (ep *EventPublisher) PublishBatchSubmitted(ctx context.Context, event *models.BatchSubmittedEvent) error {
	return ep.producer.PublishEvent(ctx, "batch-"+event.BatchID, event)
}

// PublishBatchCompleted publishes BatchCompleted event
func (ep *EventPublisher) PublishBatchCompleted(ctx context.Context, event *models.BatchCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, "batch-"+event.BatchID, event)
}

// PublishBatchReconcileFailed publishes BatchReconcileFailed event
func (ep *EventPublisher) PublishBatchReconcileFailed(ctx context.Context, event *models.BatchReconcileFailedEvent) error {
	return ep.producer.PublishEvent(ctx, "batch-"+event.BatchID, event)
}

// EventHandler routes incoming audit events
type EventHandler struct {
	onOrderReceived   func(context.Context, *models.OrderReceivedEvent) error
	onOrderDeleted    func(context.Context, *models.OrderDeletedEvent) error
	onBatchSubmitted  func(context.Context, *models.BatchSubmittedEvent) error
	onBatchCompleted  func(context.Context, *models.BatchCompletedEvent) error
	onReconcileFailed func(context.Context, *models.BatchReconcileFailedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderReceived registers a handler for OrderReceived events
func (eh *EventHandler) OnOrderReceived(handler func(context.Context, *models.OrderReceivedEvent) error) {
	eh.onOrderReceived = handler
}

// OnOrderDeleted registers a handler for OrderDeleted events
func (eh *EventHandler) OnOrderDeleted(handler func(context.Context, *models.OrderDeletedEvent) error) {
	eh.onOrderDeleted = handler
}

// OnBatchSubmitted registers a handler for BatchSubmitted events
func (eh *EventHandler) OnBatchSubmitted(handler func(context.Context, *models.BatchSubmittedEvent) error) {
	eh.onBatchSubmitted = handler
}

// OnBatchCompleted registers a handler for BatchCompleted events
func (eh *EventHandler) OnBatchCompleted(handler func(context.Context, *models.BatchCompletedEvent) error) {
	eh.onBatchCompleted = handler
}

// OnBatchReconcileFailed registers a handler for BatchReconcileFailed events
func (eh *EventHandler) OnBatchReconcileFailed(handler func(context.Context, *models.BatchReconcileFailedEvent) error) {
	eh.onReconcileFailed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeOrderReceived:
		if eh.onOrderReceived != nil {
			var event models.OrderReceivedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderReceived event: %w", err)
			}
			return eh.onOrderReceived(ctx, &event)
		}

	case models.EventTypeOrderDeleted:
		if eh.onOrderDeleted != nil {
			var event models.OrderDeletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderDeleted event: %w", err)
			}
			return eh.onOrderDeleted(ctx, &event)
		}

	case models.EventTypeBatchSubmitted:
		if eh.onBatchSubmitted != nil {
			var event models.BatchSubmittedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BatchSubmitted event: %w", err)
			}
			return eh.onBatchSubmitted(ctx, &event)
		}

	case models.EventTypeBatchCompleted:
		if eh.onBatchCompleted != nil {
			var event models.BatchCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BatchCompleted event: %w", err)
			}
			return eh.onBatchCompleted(ctx, &event)
		}

	case models.EventTypeBatchReconcileFailed:
		if eh.onReconcileFailed != nil {
			var event models.BatchReconcileFailedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BatchReconcileFailed event: %w", err)
			}
			return eh.onReconcileFailed(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}

package events

import (
	"context"
	"time"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/orchestrator"

	"github.com/google/uuid"
)

// Sink is the broker side, e.g. *nats.Publisher.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

type OrderCreated struct {
	OrderId           uuid.UUID
	UserId            uuid.UUID
	ProductId         uuid.UUID
	SupplierProductId string
	Source            string
	UnitPrice         float64
	SupplierPrice     float64
	Currency          string
}

// DomainPublisher emits DesireFinder events. A nil sink turns every call
// into a no-op so the service runs without a broker.
type DomainPublisher struct {
	sink   Sink
	logger logger.ILogger
}

func NewDomainPublisher(sink Sink, logger logger.ILogger) *DomainPublisher {
	return &DomainPublisher{sink: sink, logger: logger}
}

func (p *DomainPublisher) PublishTurnCompleted(ctx context.Context, ev orchestrator.TurnCompleted) error {
	return p.publish(ctx, BaseEvent{
		Id:   ev.MsgID + ":" + ev.SessionID,
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"chat_id":    ev.ChatID,
			"message_id": ev.MsgID,
			"session_id": ev.SessionID,
			"user_id":    ev.UserID,
			"findings":   ev.Findings,
			"blocks":     ev.Blocks,
		},
		OccurredAt: ev.At,
	})
}

func (p *DomainPublisher) PublishOrderCreated(ctx context.Context, ev OrderCreated) error {
	return p.publish(ctx, BaseEvent{
		Id:   ev.OrderId.String(),
		Type: TypeOrderCreated,
		Data: map[string]interface{}{
			"order_id":            ev.OrderId,
			"user_id":             ev.UserId,
			"product_id":          ev.ProductId,
			"supplier_product_id": ev.SupplierProductId,
			"source":              ev.Source,
			"unit_price":          ev.UnitPrice,
			"supplier_price":      ev.SupplierPrice,
			"currency":            ev.Currency,
		},
		OccurredAt: time.Now(),
	})
}

func (p *DomainPublisher) publish(ctx context.Context, evt BaseEvent) error {
	if p == nil || p.sink == nil {
		return nil
	}
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{
			"event_id": evt.Id,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}

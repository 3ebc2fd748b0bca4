package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/orchestrator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got []Event
	err error
}

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.got = append(s.got, ev)
	return s.err
}

func TestDomainPublisher(t *testing.T) {
	sink := &recordingSink{}
	p := NewDomainPublisher(sink, logger.NewNopLogger())

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, p.PublishTurnCompleted(context.Background(), orchestrator.TurnCompleted{
		ChatID: "c", MsgID: "m", SessionID: "s", UserID: "u", Findings: 3, Blocks: 2, At: at,
	}))
	orderID := uuid.New()
	require.NoError(t, p.PublishOrderCreated(context.Background(), OrderCreated{OrderId: orderID, UnitPrice: 25, Currency: "USD"}))

	require.Len(t, sink.got, 2)
	assert.Equal(t, TypeTurnCompleted, sink.got[0].EventType())
	assert.Equal(t, "m:s", sink.got[0].ID())
	assert.Equal(t, at, sink.got[0].Timestamp())
	assert.Equal(t, 3, sink.got[0].Payload()["findings"])

	assert.Equal(t, TypeOrderCreated, sink.got[1].EventType())
	assert.Equal(t, orderID.String(), sink.got[1].ID())
	assert.Equal(t, 25.0, sink.got[1].Payload()["unit_price"])
}

func TestDomainPublisher_NoSink(t *testing.T) {
	var nilPublisher *DomainPublisher
	assert.NoError(t, nilPublisher.PublishOrderCreated(context.Background(), OrderCreated{}))
	assert.NoError(t, NewDomainPublisher(nil, logger.NewNopLogger()).PublishOrderCreated(context.Background(), OrderCreated{}))
}

func TestDomainPublisher_SinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("no stream")}
	p := NewDomainPublisher(sink, logger.NewNopLogger())
	assert.Error(t, p.PublishOrderCreated(context.Background(), OrderCreated{OrderId: uuid.New()}))
}

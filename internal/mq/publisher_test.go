package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/booking-core/internal/events"
)

type sent struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	sent   []sent
	err    error
	closed bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sent{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "booking.events"}

	ev := events.Event{
		Type:           events.BookingCreated,
		SlotID:         "2024-01-16_09:00",
		OwnerID:        "A",
		BookingID:      "b-1",
		ConfirmationID: "BK-0123456789",
		OccurredAt:     time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	assert.Equal(t, "booking.events", got.exchange)
	assert.Equal(t, "booking.created", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.NotEmpty(t, got.msg.MessageId)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, ev, decoded)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: errors.New("channel closed")}, exchange: "x"}
	err := p.Publish(context.Background(), events.Event{Type: events.ReservationExpired})
	assert.ErrorContains(t, err, "publish reservation.expired")
}

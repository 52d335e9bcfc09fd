package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	errBroker := errors.New("broker down")
	ok := &recorder{}
	failing := &recorder{err: errBroker}

	ev := Event{Type: BookingCreated, SlotID: "2024-01-16_09:00", OwnerID: "A"}
	err := Multi{ok, nil, failing}.Publish(context.Background(), ev)

	assert.ErrorIs(t, err, errBroker)
	assert.Equal(t, []Event{ev}, ok.got)
	assert.Equal(t, []Event{ev}, failing.got)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(context.Background(), Event{}))
	assert.NoError(t, Discard{}.Publish(context.Background(), Event{}))
}

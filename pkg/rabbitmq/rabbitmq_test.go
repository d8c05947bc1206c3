package rabbitmq

import (
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := NewMessage("vote.cast", map[string]interface{}{"pollId": 7, "optionId": 3}, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, "vote.cast", msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)
	assert.NotEmpty(t, msg.MessageId)
	assert.JSONEq(t,
		`{"type":"vote.cast","occurredAt":"2024-05-01T12:00:00Z","payload":{"pollId":7,"optionId":3}}`,
		string(msg.Body))

	other, err := NewMessage("vote.cast", nil, now)
	require.NoError(t, err)
	assert.NotEqual(t, msg.MessageId, other.MessageId)
}

func TestNewMessageRejectsUnencodablePayload(t *testing.T) {
	_, err := NewMessage("poll.created", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	msg, err := NewMessage("poll.deleted", map[string]interface{}{"pollId": 4}, time.Now())
	require.NoError(t, err)

	ev, err := DecodeEvent(amqp.Delivery{Body: msg.Body, Type: msg.Type})
	require.NoError(t, err)
	assert.Equal(t, "poll.deleted", ev.Type)
	assert.Equal(t, map[string]interface{}{"pollId": float64(4)}, ev.Payload)

	// the message type fills in for an envelope without one
	ev, err = DecodeEvent(amqp.Delivery{Body: []byte(`{"payload":1}`), Type: "poll.updated"})
	require.NoError(t, err)
	assert.Equal(t, "poll.updated", ev.Type)

	_, err = DecodeEvent(amqp.Delivery{Body: []byte("not json")})
	assert.Error(t, err)
	assert.Error(t, LogEvent(amqp.Delivery{Body: []byte("not json")}))
}

func TestPublishWithoutChannel(t *testing.T) {
	c := &Client{queue: DefaultQueue}
	assert.Error(t, c.Publish("poll.created", nil))
	assert.Error(t, c.ConsumePollEvents(LogEvent))
	assert.NoError(t, c.Close())
}

package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"livepoll/internal/bus"
)

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return Message{}
	}
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	h := NewHub(zap.NewNop())

	first := &Connection{ID: "c1", Send: make(chan []byte, 8)}
	second := &Connection{ID: "c2", Send: make(chan []byte, 8)}
	h.Register(first)
	h.Register(second)

	h.Broadcast(bus.EventVoteUpdated, map[string]int{"totalVotes": 1})

	for _, conn := range []*Connection{first, second} {
		msg := receive(t, conn)
		assert.Equal(t, MessageType(bus.EventVoteUpdated), msg.Type)
		assert.JSONEq(t, `{"totalVotes":1}`, string(msg.Payload))
	}
}

func TestBroadcastOrderPerConnection(t *testing.T) {
	h := NewHub(zap.NewNop())

	conn := &Connection{ID: "c1", Send: make(chan []byte, 8)}
	h.Register(conn)

	h.Broadcast(bus.EventNewMessage, map[string]string{"text": "first"})
	h.Broadcast(bus.EventNewMessage, map[string]string{"text": "second"})

	assert.JSONEq(t, `{"text":"first"}`, string(receive(t, conn).Payload))
	assert.JSONEq(t, `{"text":"second"}`, string(receive(t, conn).Payload))
}

func TestSlowConnectionDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(zap.NewNop())

	slow := &Connection{ID: "slow", Send: make(chan []byte, 1)}
	h.Register(slow)

	for i := 0; i < 5; i++ {
		h.Broadcast(bus.EventNewMessage, map[string]int{"seq": i})
	}

	// Give the hub loop time to work through the queue.
	time.Sleep(100 * time.Millisecond)

	msg := receive(t, slow)
	assert.JSONEq(t, `{"seq":0}`, string(msg.Payload))

	select {
	case data := <-slow.Send:
		// At most one more message could have slipped in between the first
		// delivery and the drops; anything beyond the buffer is gone.
		var extra Message
		require.NoError(t, json.Unmarshal(data, &extra))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := NewHub(zap.NewNop())

	conn := &Connection{ID: "c1", Send: make(chan []byte, 8)}
	h.Register(conn)
	h.Unregister(conn)

	select {
	case _, ok := <-conn.Send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestConsumeRepublishesBusEvents(t *testing.T) {
	h := NewHub(zap.NewNop())
	b := bus.NewMemory()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Consume(ctx, b))

	conn := &Connection{ID: "c1", Send: make(chan []byte, 8)}
	h.Register(conn)

	ev, err := bus.NewEvent(bus.EventUserKicked, map[string]string{"studentName": "bob"})
	require.NoError(t, err)
	require.NoError(t, b.Publish(ctx, "poll-1", ev))

	msg := receive(t, conn)
	assert.Equal(t, MessageType(bus.EventUserKicked), msg.Type)
	assert.JSONEq(t, `{"studentName":"bob"}`, string(msg.Payload))
}

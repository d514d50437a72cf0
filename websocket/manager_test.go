package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestManagerRegisterUnregister(t *testing.T) {
	m := NewManager()
	go m.Start()

	client := &Client{userID: "u1", send: make(chan []byte, 1), manager: m}
	m.register <- client
	waitFor(t, func() bool { return m.GetConnectedClients() == 1 })
	assert.True(t, m.IsOnline("u1"))

	m.unregister <- client
	waitFor(t, func() bool { return m.GetConnectedClients() == 0 })
	assert.False(t, m.IsOnline("u1"))
}

func TestManagerPresenceFiresOnFirstAndLastConnection(t *testing.T) {
	m := NewManager()

	var mu sync.Mutex
	var events []bool
	m.Presence = func(userID string, online bool) {
		mu.Lock()
		events = append(events, online)
		mu.Unlock()
	}
	go m.Start()

	c1 := &Client{userID: "u1", send: make(chan []byte, 1), manager: m}
	c2 := &Client{userID: "u1", send: make(chan []byte, 1), manager: m}

	m.register <- c1
	m.register <- c2
	waitFor(t, func() bool { return m.GetConnectedClients() == 2 })

	// Second connection of the same user must not fire presence again.
	mu.Lock()
	require.Equal(t, []bool{true}, events)
	mu.Unlock()

	m.unregister <- c1
	waitFor(t, func() bool { return m.GetConnectedClients() == 1 })
	mu.Lock()
	require.Equal(t, []bool{true}, events)
	mu.Unlock()

	m.unregister <- c2
	waitFor(t, func() bool { return m.GetConnectedClients() == 0 })
	mu.Lock()
	require.Equal(t, []bool{true, false}, events)
	mu.Unlock()
}

func TestSendToUserReachesOnlyThatUser(t *testing.T) {
	m := NewManager()
	go m.Start()

	c1 := &Client{userID: "u1", send: make(chan []byte, 4), manager: m}
	c2 := &Client{userID: "u2", send: make(chan []byte, 4), manager: m}
	m.register <- c1
	m.register <- c2
	waitFor(t, func() bool { return m.GetConnectedClients() == 2 })

	m.SendToUser("u1", "ping", map[string]interface{}{"x": 1})

	select {
	case msg := <-c1.send:
		assert.Contains(t, string(msg), `"type":"ping"`)
	case <-time.After(time.Second):
		t.Fatal("expected message for u1")
	}

	select {
	case <-c2.send:
		t.Fatal("u2 should not receive the message")
	default:
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	m := NewManager()
	go m.Start()

	c1 := &Client{userID: "u1", send: make(chan []byte, 4), manager: m}
	c2 := &Client{userID: "u2", send: make(chan []byte, 4), manager: m}
	m.register <- c1
	m.register <- c2
	waitFor(t, func() bool { return m.GetConnectedClients() == 2 })

	m.Broadcast("presence", map[string]interface{}{"userId": "u3", "online": true})

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			assert.Contains(t, string(msg), `"type":"presence"`)
		case <-time.After(time.Second):
			t.Fatalf("expected broadcast for %s", c.userID)
		}
	}
}

func TestBroadcastKeepsSlowClientRegistered(t *testing.T) {
	m := NewManager()
	go m.Start()

	// No send buffer: every fan-out to this client drops the frame.
	slow := &Client{userID: "u1", send: make(chan []byte), manager: m}
	fast := &Client{userID: "u2", send: make(chan []byte, 4), manager: m}
	m.register <- slow
	m.register <- fast
	waitFor(t, func() bool { return m.GetConnectedClients() == 2 })

	m.Broadcast("presence", map[string]interface{}{"userId": "u3", "online": false})

	// The dropped frame must not disconnect the slow client or leave its
	// user registry entry pointing at a closed channel.
	assert.Equal(t, 2, m.GetConnectedClients())
	assert.True(t, m.IsOnline("u1"))
	assert.NotPanics(t, func() {
		m.SendToUser("u1", "ping", map[string]interface{}{"x": 1})
	})
}

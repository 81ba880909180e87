package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionEvent struct {
	Type    string `json:"type"`
	Session string `json:"session_id"`
}

func (e sessionEvent) SessionScope() string { return e.Session }

func registerClient(hub *Hub, session string) *Client {
	c := &Client{hub: hub, send: make(chan []byte, 256), session: session}
	hub.register <- c
	return c
}

func expectMessage(t *testing.T, c *Client, want []byte) {
	t.Helper()
	select {
	case got := <-c.send:
		assert.Equal(t, want, got)
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("client %q did not receive %s", c.session, want)
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if ok {
			t.Fatalf("client %q received unexpected message: %s", c.session, msg)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client1 := registerClient(hub, "")
	client2 := registerClient(hub, "")

	msg := map[string]string{"type": "job.created", "status": "OPEN"}
	msgBytes, _ := json.Marshal(msg)
	hub.Broadcast(msg)

	expectMessage(t, client1, msgBytes)
	expectMessage(t, client2, msgBytes)

	hub.unregister <- client1

	msg2 := []byte("second message")
	hub.Broadcast(msg2)

	expectNothing(t, client1)
	expectMessage(t, client2, msg2)
}

func TestHub_SessionScope(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	all := registerClient(hub, "")
	a := registerClient(hub, "session-a")
	b := registerClient(hub, "session-b")

	evt := sessionEvent{Type: "prediction.updated", Session: "session-a"}
	data, err := json.Marshal(evt)
	require.NoError(t, err)
	hub.Broadcast(evt)

	expectMessage(t, all, data)
	expectMessage(t, a, data)
	expectNothing(t, b)

	// unscoped messages reach everyone
	hub.Broadcast([]byte("ping"))
	expectMessage(t, all, []byte("ping"))
	expectMessage(t, a, []byte("ping"))
	expectMessage(t, b, []byte("ping"))
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := registerClient(hub, "")
	hub.Stop()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastUnencodable(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := registerClient(hub, "")
	hub.Broadcast(map[string]interface{}{"bad": make(chan int)})
	expectNothing(t, c)
}

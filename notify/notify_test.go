package notify

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: EventPublished, Path: "/proj/compiled/shader.spv"})

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventPublished, got.Type)
		assert.Equal(t, "/proj/compiled/shader.spv", got.Path)
		assert.False(t, got.Time.IsZero(), "Publish stamps the event time")
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Publishing with nobody listening is fine.
	hub.Publish(Event{Type: EventValidated})
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	c := &client{send: make(chan Event, 1), drop: make(chan struct{})}
	hub.add(c)

	hub.Publish(Event{Type: EventPublished})
	assert.Equal(t, 1, hub.Clients())

	hub.Publish(Event{Type: EventPublished})
	assert.Equal(t, 0, hub.Clients())
	select {
	case <-c.drop:
	default:
		t.Fatal("slow client was not closed")
	}
}

func TestDiscard(t *testing.T) {
	Discard.Publish(Event{Type: EventPublished})
}

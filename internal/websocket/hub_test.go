package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/domain"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())

	c1 := mockClient(hub)
	c2 := mockClient(hub)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	// Double unregister must not panic on the closed channel.
	hub.Unregister(c1)
	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestNotifyBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	c := mockClient(hub)
	hub.Register(c)
	defer hub.Unregister(c)

	n := domain.Notification{ID: 7, Type: domain.NotifyReminder, Title: "Stretch", Body: "Five minutes"}
	if err := hub.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "notification_reminder" {
			t.Errorf("type = %q", got.Type)
		}
		if got.ID != "7" {
			t.Errorf("id = %q", got.ID)
		}
		if got.Extra["title"] != "Stretch" {
			t.Errorf("title = %v", got.Extra["title"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := mockClient(hub)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(NewMessage("checkin", "created", "", nil))
	}
	// Dropped, not blocked.
	hub.Broadcast(NewMessage("checkin", "dropped", "", nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d buffered messages, got %d", sendBufferSize, got)
	}
	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(zap.NewNop())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Broadcast(NewMessage("reward", "claimed", "x", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandler_EndToEnd(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(Handler(hub, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(NewMessage("challenge", "completed", "strength-1", nil))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "challenge_completed" || got.ID != "strength-1" {
		t.Errorf("got %+v", got)
	}
}

package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"bitsbarter/internal/models"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("c1", nil, ConnInfo{UserID: "u1", ConnID: "conn-1"})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected room to be created")
	}
	if len(hub.connInfo["c1"]) != 1 {
		t.Fatalf("expected connection info to be tracked")
	}

	hub.RemoveClient("c1", nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected room to be removed")
	}
	if len(hub.connInfo) != 0 {
		t.Fatalf("expected connection info to be cleared")
	}
}

func TestHubRemoveUnknownClient(t *testing.T) {
	hub := NewHub()

	// Removing from a room that was never created must not panic.
	hub.RemoveClient("ghost", nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected no rooms")
	}
}

// dialRoomClient connects a real websocket client whose server side is
// registered in the hub room, and waits for the registration.
func dialRoomClient(t *testing.T, hub *Hub, chatID string) *websocket.Conn {
	t.Helper()

	added := make(chan struct{}, 1)
	upgr := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgr.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddClient(chatID, conn, ConnInfo{ConnID: newConnID(), UserID: "u1"})
		added <- struct{}{}
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case <-added:
	case <-time.After(2 * time.Second):
		t.Fatalf("server never registered the connection")
	}
	return client
}

func TestHubBroadcastDelivers(t *testing.T) {
	hub := NewHub()
	client := dialRoomClient(t, hub, "c1")

	hub.BroadcastMessage("c1", models.Message{ID: 1, ChatID: "c1", SenderID: "u2", Text: "hi"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event models.ChatEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Type != "message" {
		t.Fatalf("expected message event, got %q", event.Type)
	}
	if event.Message == nil || event.Message.Text != "hi" {
		t.Fatalf("unexpected event payload: %+v", event)
	}
}

func TestHubBroadcastDuringMembershipChanges(t *testing.T) {
	hub := NewHub()
	client := dialRoomClient(t, hub, "c1")

	// Keep the client draining so broadcast writes never back up.
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hub.BroadcastMessage("c1", models.Message{ID: int64(i), ChatID: "c1", SenderID: "u2", Text: "x"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hub.AddClient("c2", nil, ConnInfo{ConnID: "conn-2"})
			hub.RemoveClient("c2", nil)
		}
	}()
	wg.Wait()
}

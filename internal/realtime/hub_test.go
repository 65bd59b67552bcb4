package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var testUpgrader = websocket.Upgrader{}

// dialTestClient upgrades a connection against a throwaway server and hands
// back both ends: the websocket the test reads from, and the *Client the hub
// sees.
func dialTestClient(t *testing.T, hub *Hub) (*websocket.Conn, *Client, func()) {
	t.Helper()

	var internalClient *Client
	var created sync.WaitGroup
	created.Add(1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}
		internalClient = client
		created.Done()

		go client.writePump()
		go client.readPump()
	}))

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	created.Wait()

	cleanup := func() {
		server.Close()
		ws.Close()
	}
	return ws, internalClient, cleanup
}

func TestHub_Run(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	t.Run("registered client receives broadcasts", func(t *testing.T) {
		ws, client, cleanup := dialTestClient(t, hub)
		defer cleanup()

		hub.register <- client
		time.Sleep(50 * time.Millisecond)

		event, _ := json.Marshal(map[string]any{"event": "queue.track_added", "user_id": "user-1"})
		hub.Broadcast(event)

		_, received, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(received) != string(event) {
			t.Errorf("expected %s, got %s", event, received)
		}
	})

	t.Run("unregister closes the send channel", func(t *testing.T) {
		_, client, cleanup := dialTestClient(t, hub)
		defer cleanup()

		hub.register <- client
		time.Sleep(10 * time.Millisecond)

		hub.unregister <- client

		select {
		case _, ok := <-client.send:
			if ok {
				t.Error("expected send channel to be closed")
			}
		case <-time.After(200 * time.Millisecond):
			t.Error("timed out waiting for send channel close")
		}
	})

	t.Run("broadcast fans out to every client", func(t *testing.T) {
		ws1, client1, cleanup1 := dialTestClient(t, hub)
		defer cleanup1()
		ws2, client2, cleanup2 := dialTestClient(t, hub)
		defer cleanup2()

		hub.register <- client1
		hub.register <- client2
		time.Sleep(50 * time.Millisecond)

		msg := []byte(`{"event":"queue.reordered"}`)
		hub.Broadcast(msg)

		verify := func(ws *websocket.Conn, name string) {
			_, received, err := ws.ReadMessage()
			if err != nil {
				t.Errorf("%s: read failed: %v", name, err)
				return
			}
			if string(received) != string(msg) {
				t.Errorf("%s: expected %s, got %s", name, msg, received)
			}
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); verify(ws1, "client1") }()
		go func() { defer wg.Done(); verify(ws2, "client2") }()

		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()

		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			t.Error("timeout waiting for both clients")
		}
	})
}

// Messages published to the redis broadcast channel must reach websocket
// clients through the subscriber relay.
func TestRunRedisSubscriber_RelaysMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	hub := NewHub()
	go hub.Run()

	srv := NewServer(hub, rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RunRedisSubscriber(ctx)

	ws, client, cleanup := dialTestClient(t, hub)
	defer cleanup()
	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	payload := `{"event":"queue.track_removed","user_id":"user-1"}`
	if err := rdb.Publish(context.Background(), "broadcast", payload).Err(); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, received, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(received) != payload {
		t.Errorf("expected %s, got %s", payload, received)
	}
}

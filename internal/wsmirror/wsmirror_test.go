package wsmirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsPublishedEventsToConnectedClients(t *testing.T) {
	hub := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.Handler))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// give the hub a moment to register the connection before publishing.
	time.Sleep(50 * time.Millisecond)
	hub.Publish(Event{Message: "hello"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Message != "hello" {
		t.Fatalf("got.Message = %q, want %q", got.Message, "hello")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := New()
	// Don't run the hub loop, so events accumulate in the channel buffer
	// (capacity 100) until it's full; further Publish calls must not block
	// the caller. Reaching the end of the loop without deadlocking is the
	// assertion.
	for i := 0; i < 150; i++ {
		hub.Publish(Event{Message: "x"})
	}
}

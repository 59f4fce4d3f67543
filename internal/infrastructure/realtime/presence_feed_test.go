package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMemoryFeedDeliversEvents(t *testing.T) {
	feed := NewMemoryPresenceFeed()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events atomic.Int64
	go feed.Subscribe(ctx, "u1", func() {
		events.Add(1)
	})

	assert.Eventually(t, func() bool {
		feed.Publish(context.Background(), "u1")
		return events.Load() > 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryFeedScopesByUser(t *testing.T) {
	feed := NewMemoryPresenceFeed()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events atomic.Int64
	go feed.Subscribe(ctx, "u1", func() {
		events.Add(1)
	})

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, feed.Publish(context.Background(), "u2"))
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, events.Load())
}

func TestMemoryFeedSubscribeStopsOnCancel(t *testing.T) {
	feed := NewMemoryPresenceFeed()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- feed.Subscribe(ctx, "u1", func() {})
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("subscribe did not return after cancel")
	}
}

func TestSessionSocketPushesSnapshots(t *testing.T) {
	var clock atomic.Int64
	socket := NewSessionSocket(func() interface{} {
		return map[string]int64{"elapsed": clock.Load()}
	}, 20*time.Millisecond, zap.NewNop().Sugar())

	server := httptest.NewServer(http.HandlerFunc(socket.HandleConnection))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()

	var snapshot map[string]int64
	assert.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, int64(0), snapshot["elapsed"])

	clock.Store(3)
	socket.Broadcast()

	assert.Eventually(t, func() bool {
		if err := conn.ReadJSON(&snapshot); err != nil {
			return false
		}
		return snapshot["elapsed"] == 3
	}, time.Second, 10*time.Millisecond)
}

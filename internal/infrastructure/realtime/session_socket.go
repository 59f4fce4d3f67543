package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SnapshotFunc produces the current session state pushed to studio clients.
type SnapshotFunc func() interface{}

// SessionSocket streams session state snapshots to connected studio clients
// over WebSocket. A snapshot goes out every push interval (carrying the
// recording clock) and immediately on Broadcast.
type SessionSocket struct {
	snapshot     SnapshotFunc
	pushInterval time.Duration
	writeTimeout time.Duration
	readTimeout  time.Duration
	pingInterval time.Duration

	connections map[*websocket.Conn]chan struct{}
	mu          sync.RWMutex

	logger *zap.SugaredLogger
}

func NewSessionSocket(snapshot SnapshotFunc, pushInterval time.Duration, logger *zap.SugaredLogger) *SessionSocket {
	return &SessionSocket{
		snapshot:     snapshot,
		pushInterval: pushInterval,
		writeTimeout: 10 * time.Second,
		readTimeout:  60 * time.Second,
		pingInterval: 30 * time.Second,
		connections:  make(map[*websocket.Conn]chan struct{}),
		logger:       logger,
	}
}

// HandleConnection upgrades the request and serves snapshots until the client
// disconnects.
func (s *SessionSocket) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	wake := make(chan struct{}, 1)
	s.mu.Lock()
	s.connections[conn] = wake
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.connections, conn)
		s.mu.Unlock()
	}()

	s.logger.Infow("studio client connected", "remote", conn.RemoteAddr().String())

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	// Reader goroutine only detects disconnects; clients send nothing else
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
	}()

	pushTicker := time.NewTicker(s.pushInterval)
	defer pushTicker.Stop()
	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	if err := s.writeSnapshot(conn); err != nil {
		return
	}

	for {
		select {
		case <-done:
			s.logger.Infow("studio client disconnected", "remote", conn.RemoteAddr().String())
			return
		case <-wake:
			if err := s.writeSnapshot(conn); err != nil {
				return
			}
		case <-pushTicker.C:
			if err := s.writeSnapshot(conn); err != nil {
				return
			}
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *SessionSocket) writeSnapshot(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := conn.WriteJSON(s.snapshot()); err != nil {
		s.logger.Debugw("snapshot write failed", "error", err)
		return err
	}
	return nil
}

// Broadcast wakes every connection to push a fresh snapshot immediately.
// Used for state edges like markers, scene changes and live transitions.
func (s *SessionSocket) Broadcast() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, wake := range s.connections {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}

// ConnectionCount reports connected studio clients.
func (s *SessionSocket) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

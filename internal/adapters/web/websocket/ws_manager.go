package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/wsentry/internal/core/domain"
	"github.com/lcalzada-xor/wsentry/internal/core/ports"
)

// Message types pushed to clients.
const (
	TypeSnapshot  = "snapshot"
	TypeAttack    = "attack"
	TypeDirection = "direction"
	TypeCleared   = "cleared"
)

// DirectionInterval is how often the direction state is pushed while tracking.
const DirectionInterval = 2 * time.Second

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type snapshotPayload struct {
	Channels []domain.ChannelStats `json:"channels"`
	Events   []domain.AttackEvent  `json:"events"`
}

type directionPayload struct {
	BSSID   string                   `json:"bssid"`
	Azimuth float64                  `json:"azimuth"`
	Profile *domain.DirectionProfile `json:"profile,omitempty"`
	Bearing *float64                 `json:"bearing,omitempty"`
}

// WSManager fans monitor updates out to every connected websocket client.
// It is registered as a monitor observer.
type WSManager struct {
	Service  ports.Monitor
	Clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

// NewWSManager creates a manager accepting connections from the given origins.
// Requests without an Origin header are always accepted.
func NewWSManager(service ports.Monitor, allowedOrigins []string) *WSManager {
	m := &WSManager{
		Service: service,
		Clients: make(map[*websocket.Conn]bool),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			slog.Warn("WebSocket: rejected origin", "origin", origin)
			return false
		},
	}
	return m
}

var _ ports.MonitorObserver = (*WSManager)(nil)

// Start pushes direction updates until ctx is cancelled.
func (m *WSManager) Start(ctx context.Context) {
	go m.broadcastDirectionLoop(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	m.mu.Lock()
	m.Clients[conn] = true
	m.mu.Unlock()
	slog.Info("WebSocket connected", "remote", r.RemoteAddr)

	// Greet with the current state so clients need not wait for the next scan.
	state := m.Service.State()
	m.send(conn, WSMessage{Type: TypeSnapshot, Payload: snapshotPayload{Channels: state.Channels, Events: state.Events}})

	// Clean up on disconnect
	go func() {
		defer m.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Clients)
}

// OnSnapshot broadcasts the results of one ingested snapshot.
func (m *WSManager) OnSnapshot(ctx context.Context, stats []domain.ChannelStats, events []domain.AttackEvent) {
	if events == nil {
		events = []domain.AttackEvent{}
	}
	m.broadcastMessage(WSMessage{Type: TypeSnapshot, Payload: snapshotPayload{Channels: stats, Events: events}})
	for _, ev := range events {
		m.broadcastMessage(WSMessage{Type: TypeAttack, Payload: ev})
	}
}

// OnCleared tells clients to drop their local state.
func (m *WSManager) OnCleared(ctx context.Context) {
	m.broadcastMessage(WSMessage{Type: TypeCleared, Payload: nil})
}

func (m *WSManager) broadcastDirectionLoop(ctx context.Context) {
	ticker := time.NewTicker(DirectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.broadcastDirection()
		}
	}
}

func (m *WSManager) broadcastDirection() {
	state := m.Service.State()
	if state.TrackedBSSID == "" {
		return
	}
	m.broadcastMessage(WSMessage{
		Type: TypeDirection,
		Payload: directionPayload{
			BSSID:   state.TrackedBSSID,
			Azimuth: state.Azimuth,
			Profile: state.Profile,
			Bearing: state.Bearing,
		},
	})
}

func (m *WSManager) send(conn *websocket.Conn, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(conn, data)
}

func (m *WSManager) broadcastMessage(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		m.write(conn, data)
	}
}

// write must be called with mu held.
func (m *WSManager) write(conn *websocket.Conn, data []byte) {
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		conn.Close()
		delete(m.Clients, conn)
	}
}

func (m *WSManager) remove(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Clients[conn]; ok {
		conn.Close()
		delete(m.Clients, conn)
		slog.Info("WebSocket disconnected", "remote", conn.RemoteAddr().String())
	}
}

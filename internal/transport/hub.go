// Package transport publishes the daemon packet stream to observers.
package transport

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot/internal/protocol"
)

// Per-session send buffer. A session that falls this far behind the
// broadcast stream is dropped to keep tick framing intact.
const sendBuffer = 1024

// Session is one subscribed observer.
type Session struct {
	ID   uint64
	send chan []byte
}

// Out returns the channel of encoded packets to deliver. The channel is
// closed when the session is unregistered.
func (s *Session) Out() <-chan []byte {
	return s.send
}

// Hub fans the packet stream out to subscribed sessions. New sessions are
// seeded with the snapshot packets before receiving broadcasts.
type Hub struct {
	log *zap.Logger

	mu       sync.Mutex
	sessions map[uint64]*Session
	nextID   uint64
	snapshot func() []protocol.Packet
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:      log,
		sessions: make(map[uint64]*Session),
	}
}

// SetSnapshot installs the provider of subscribe-time packets, typically
// a Hello followed by a full character state snapshot.
func (h *Hub) SetSnapshot(fn func() []protocol.Packet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// Register adds a session and seeds it with the snapshot packets.
func (h *Hub) Register() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	s := &Session{
		ID:   h.nextID,
		send: make(chan []byte, sendBuffer),
	}

	seeded := 0
	if h.snapshot != nil {
		for _, p := range h.snapshot() {
			select {
			case s.send <- p.Encode():
				seeded++
			default:
			}
		}
	}

	h.sessions[s.ID] = s
	h.log.Info("observer subscribed",
		zap.Uint64("session", s.ID),
		zap.Int("snapshot_packets", seeded))
	return s
}

// Unregister removes a session and closes its send channel. Safe to call
// more than once.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s.ID]; !ok {
		return
	}
	delete(h.sessions, s.ID)
	close(s.send)
	h.log.Info("observer left", zap.Uint64("session", s.ID))
}

// Broadcast encodes a packet once and queues it on every session. A
// session with a full buffer is dropped.
func (h *Hub) Broadcast(p protocol.Packet) {
	data := p.Encode()

	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped []*Session
	for _, s := range h.sessions {
		select {
		case s.send <- data:
		default:
			dropped = append(dropped, s)
		}
	}
	for _, s := range dropped {
		delete(h.sessions, s.ID)
		close(s.send)
		h.log.Warn("observer lagging, dropped session", zap.Uint64("session", s.ID))
	}
}

// Sessions returns the number of subscribed sessions.
func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close unregisters every session.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.sessions {
		delete(h.sessions, id)
		close(s.send)
	}
}

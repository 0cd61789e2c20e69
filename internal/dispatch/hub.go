package dispatch

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait       = 10 * time.Second
	sendBufferDepth = 16
)

// Hub tracks the long-lived websocket session of each connected device.
// One session per device id; a new connection for the same device replaces
// the old one.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{sessions: map[string]*session{}}
}

// Register adopts conn as the device's live session and starts its writer.
// All writes to the connection go through the session's send channel; gorilla
// connections allow only one concurrent writer.
func (h *Hub) Register(deviceID string, conn *websocket.Conn) {
	s := &session{conn: conn, send: make(chan []byte, sendBufferDepth)}

	h.mu.Lock()
	if old, ok := h.sessions[deviceID]; ok {
		close(old.send)
	}
	h.sessions[deviceID] = s
	h.mu.Unlock()

	go s.writePump(deviceID)
	log.Info().Str("device_id", deviceID).Msg("[hub] session registered")
}

// Unregister drops the session if conn is still the current one and reports
// whether it did. A false return means conn was already replaced by a newer
// session; callers tearing down the old connection must not touch any
// device-is-connected state in that case.
func (h *Hub) Unregister(deviceID string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[deviceID]; ok && s.conn == conn {
		close(s.send)
		delete(h.sessions, deviceID)
		log.Info().Str("device_id", deviceID).Msg("[hub] session unregistered")
		return true
	}
	return false
}

// Send queues payload for the device and reports whether a session existed.
// A session with a full buffer counts as delivered-to; the message is dropped
// rather than blocking a mutation on a slow device. The read lock is held
// across the channel send: the channel is only ever closed under the write
// lock, so a racing Register/Unregister cannot close it mid-send.
func (h *Hub) Send(deviceID string, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[deviceID]
	if !ok {
		return false
	}
	select {
	case s.send <- payload:
	default:
		log.Warn().Str("device_id", deviceID).Msg("[hub] send buffer full, dropping event")
	}
	return true
}

// Connected reports whether the device currently holds a session.
func (h *Hub) Connected(deviceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[deviceID]
	return ok
}

func (s *session) writePump(deviceID string) {
	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Debug().Err(err).Str("device_id", deviceID).Msg("[hub] write failed")
		}
	}
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced"),
		time.Now().Add(writeWait))
	_ = s.conn.Close()
}

// Package realtime pushes events to employees connected over websocket.
package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// writeWait bounds a single write so a stalled client cannot block fan-out.
const writeWait = 5 * time.Second

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
	Close() error
}

// Event is the envelope written to every socket.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// wsConn serializes writes to one connection.
type wsConn struct {
	conn Conn
	mu   sync.Mutex
}

// Hub tracks live connections per employee. An employee may hold several
// connections (one per open tab).
type Hub struct {
	mu         sync.RWMutex
	byEmployee map[int64]map[*wsConn]struct{}
	log        zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{byEmployee: make(map[int64]map[*wsConn]struct{}), log: log}
}

// Register adds a connection and returns the function that removes it.
func (h *Hub) Register(employeeID int64, conn Conn) (unregister func()) {
	wc := &wsConn{conn: conn}
	h.mu.Lock()
	set, ok := h.byEmployee[employeeID]
	if !ok {
		set = make(map[*wsConn]struct{})
		h.byEmployee[employeeID] = set
	}
	set[wc] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.byEmployee[employeeID]; ok {
				delete(set, wc)
				if len(set) == 0 {
					delete(h.byEmployee, employeeID)
				}
			}
			h.mu.Unlock()
			_ = wc.conn.Close()
		})
	}
}

// Connections returns the number of live connections of an employee.
func (h *Hub) Connections(employeeID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byEmployee[employeeID])
}

// Notify writes an event to every connection of the employee and returns the
// number of successful writes. Employees without a connection are skipped.
func (h *Hub) Notify(employeeID int64, event string, payload any) int {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.byEmployee[employeeID]))
	for wc := range h.byEmployee[employeeID] {
		conns = append(conns, wc)
	}
	h.mu.RUnlock()

	sent := 0
	msg := Event{Event: event, Data: payload}
	for _, wc := range conns {
		wc.mu.Lock()
		err := wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = wc.conn.WriteJSON(msg)
		}
		wc.mu.Unlock()
		if err != nil {
			h.log.Warn().Err(err).
				Int64("employee_id", employeeID).
				Str("event", event).
				Msg("ws: write failed")
			continue
		}
		sent++
	}
	return sent
}

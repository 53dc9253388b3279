package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeConn struct {
	mu       sync.Mutex
	written  []Event
	fail     bool
	closed   bool
	deadline time.Time
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v.(Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestNotifyReachesEveryConnection(t *testing.T) {
	h := NewHub(zerolog.Nop())
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Register(1, a)
	h.Register(1, b)
	h.Register(2, other)

	if sent := h.Notify(1, "notification.new", map[string]int{"id": 9}); sent != 2 {
		t.Fatalf("sent = %d", sent)
	}
	if len(a.written) != 1 || len(b.written) != 1 || len(other.written) != 0 {
		t.Fatalf("writes a=%d b=%d other=%d", len(a.written), len(b.written), len(other.written))
	}
	if a.written[0].Event != "notification.new" {
		t.Fatalf("event = %q", a.written[0].Event)
	}
}

func TestNotifyBoundsEachWrite(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := &fakeConn{}
	h.Register(1, c)

	before := time.Now()
	if sent := h.Notify(1, "x", nil); sent != 1 {
		t.Fatalf("sent = %d", sent)
	}
	if c.deadline.IsZero() {
		t.Fatal("write deadline not set")
	}
	if c.deadline.Before(before.Add(writeWait)) || c.deadline.After(time.Now().Add(writeWait)) {
		t.Fatalf("deadline = %v, want about %v from now", c.deadline, writeWait)
	}
}

func TestNotifySkipsMissingAndFailing(t *testing.T) {
	h := NewHub(zerolog.Nop())
	if sent := h.Notify(42, "x", nil); sent != 0 {
		t.Fatalf("sent = %d", sent)
	}
	h.Register(1, &fakeConn{fail: true})
	ok := &fakeConn{}
	h.Register(1, ok)
	if sent := h.Notify(1, "x", nil); sent != 1 {
		t.Fatalf("sent = %d", sent)
	}
}

func TestUnregisterClosesAndRemoves(t *testing.T) {
	h := NewHub(zerolog.Nop())
	c := &fakeConn{}
	unregister := h.Register(5, c)
	if h.Connections(5) != 1 {
		t.Fatal("expected one connection")
	}
	unregister()
	unregister()
	if h.Connections(5) != 0 || !c.closed {
		t.Fatalf("connections = %d, closed = %v", h.Connections(5), c.closed)
	}
}

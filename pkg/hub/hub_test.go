package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// fakeConn is an in-memory Conn. Reads block until Close; writes are
// forwarded to the written channel, or block until Close when
// blockWrites is set.
type fakeConn struct {
	written chan written
	closed  chan struct{}
	once    sync.Once

	blockWrites bool
	active      atomic.Int32 // calls in progress
	released    atomic.Bool  // handler has returned the conn
	late        atomic.Int32 // calls made after release
}

func (f *fakeConn) enter() {
	f.active.Add(1)
	if f.released.Load() {
		f.late.Add(1)
	}
}

func (f *fakeConn) leave() {
	f.active.Add(-1)
}

type written struct {
	kind int
	data string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		written: make(chan written, 512),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	f.enter()
	defer f.leave()
	if f.blockWrites {
		<-f.closed
		return errors.New("closed")
	}
	select {
	case <-f.closed:
		return errors.New("closed")
	default:
	}
	f.written <- written{kind: kind, data: string(data)}
	return nil
}

func (f *fakeConn) Close() error {
	f.enter()
	defer f.leave()
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) next(t *testing.T) written {
	t.Helper()
	select {
	case w := <-f.written:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a write")
		return written{}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	waitFor(t, h.IsRunning)
	t.Cleanup(cancel)
	return h, cancel
}

func TestNew(t *testing.T) {
	h := New("digest", nil)
	if h == nil {
		t.Fatal("New returned nil")
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not run before Run")
	}
}

func TestClient_ReceivesInitialThenBroadcast(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()

	c := NewClient(h, conn, NewTextMessage("first"))
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.ID == "" {
		t.Error("client should have an ID")
	}
	go c.Run()

	waitFor(t, func() bool { return h.ClientCount() == 1 })
	h.BroadcastText("second")

	for _, want := range []string{"first", "second"} {
		got := conn.next(t)
		if got.kind != websocket.TextMessage {
			t.Errorf("kind = %d, want text", got.kind)
		}
		if got.data != want {
			t.Errorf("data = %q, want %q", got.data, want)
		}
	}

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestHub_DropsSlowClient(t *testing.T) {
	h, _ := startHub(t)

	// No pumps: the queue fills and the hub gives up on the client.
	slow := NewClient(h, newFakeConn())
	if slow == nil {
		t.Fatal("NewClient returned nil")
	}
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	for i := 0; i < clientBuffer+1; i++ {
		h.BroadcastText("x")
	}

	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestBroadcast_FullQueueDrops(t *testing.T) {
	h := New("idle", nil) // not running, nothing drains

	for i := 0; i < broadcastBuffer+5; i++ {
		h.BroadcastText("x")
	}
	if h.Dropped() != 5 {
		t.Errorf("Dropped = %d, want 5", h.Dropped())
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	h, cancel := startHub(t)
	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	<-h.Done()

	if got := conn.next(t); got.kind != websocket.CloseMessage {
		t.Errorf("kind = %d, want close", got.kind)
	}
	if h.IsRunning() {
		t.Error("hub should report stopped")
	}
	if NewClient(h, newFakeConn()) != nil {
		t.Error("NewClient should return nil once the hub has stopped")
	}
}

func TestClient_RunWaitsForWriter(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()
	conn.blockWrites = true

	// The initial message parks the write pump inside WriteMessage.
	c := NewClient(h, conn, NewTextMessage("first"))
	done := make(chan struct{})
	go func() {
		c.Run()
		conn.released.Store(true)
		close(done)
	}()
	waitFor(t, func() bool { return conn.active.Load() == 1 })

	conn.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the connection closed")
	}

	if n := conn.active.Load(); n != 0 {
		t.Errorf("%d conn calls still in progress after Run returned", n)
	}
	time.Sleep(20 * time.Millisecond)
	if n := conn.late.Load(); n != 0 {
		t.Errorf("%d conn calls made after Run returned", n)
	}
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

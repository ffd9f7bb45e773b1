package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	writes []written
	closed chan struct{}
	once   sync.Once
	block  chan struct{} // when set, writes wait on it
}

type written struct {
	kind int
	data []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(kind int, data []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, written{kind, append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) messages(kind int) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, w := range f.writes {
		if w.kind == kind {
			out = append(out, w.data)
		}
	}
	return out
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	require.Eventually(t, h.IsRunning, time.Second, time.Millisecond)
	return h, cancel
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h, _ := startHub(t)

	a, b := newFakeConn(), newFakeConn()
	ca, cb := NewClient(h, a), NewClient(h, b)
	go ca.Run()
	go cb.Run()

	assert.NotEqual(t, ca.ID, cb.ID)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []uuid.UUID{ca.ID, cb.ID}, h.Clients())

	h.BroadcastBinary([]byte{0xff, 0xd8})
	require.NoError(t, h.BroadcastJSON(map[string]int{"tick": 1}))

	for _, c := range []*fakeConn{a, b} {
		require.Eventually(t, func() bool {
			return len(c.messages(websocket.BinaryMessage)) == 1 && len(c.messages(websocket.TextMessage)) == 1
		}, time.Second, time.Millisecond)
		assert.Equal(t, []byte{0xff, 0xd8}, c.messages(websocket.BinaryMessage)[0])
		assert.JSONEq(t, `{"tick":1}`, string(c.messages(websocket.TextMessage)[0]))
	}
}

func TestQueueSendsToOneClient(t *testing.T) {
	h, _ := startHub(t)

	a, b := newFakeConn(), newFakeConn()
	ca, cb := NewClient(h, a), NewClient(h, b)
	assert.True(t, ca.Queue(NewJSONMessage([]byte(`{"hello":true}`))))
	go ca.Run()
	go cb.Run()

	require.Eventually(t, func() bool { return len(a.messages(websocket.TextMessage)) == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, b.messages(websocket.TextMessage))
}

func TestDisconnectUnregisters(t *testing.T) {
	h, _ := startHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)
	conn.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the connection closed")
	}
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
}

func TestSlowClientIsDropped(t *testing.T) {
	h, _ := startHub(t)

	slow := newFakeConn()
	slow.block = make(chan struct{})
	defer close(slow.block)

	c := NewClient(h, slow)
	go c.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	// One message is stuck in the write, the rest fill the buffer
	for i := 0; i < sendBuffer*4; i++ {
		h.BroadcastBinary([]byte{byte(i)})
		time.Sleep(100 * time.Microsecond)
	}

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
}

func TestStopClosesClients(t *testing.T) {
	h, cancel := startHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	go c.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	cancel()

	require.Eventually(t, func() bool { return !h.IsRunning() }, time.Second, time.Millisecond)
	assert.Zero(t, h.ClientCount())
	// The write pump sends a close frame and closes the connection
	assert.Eventually(t, func() bool { return len(conn.messages(websocket.CloseMessage)) == 1 }, time.Second, time.Millisecond)

	late := NewClient(h, newFakeConn())
	_, open := <-late.send
	assert.False(t, open, "clients of a stopped hub are closed immediately")
}

func TestQueueAfterStopIsRejected(t *testing.T) {
	h, cancel := startHub(t)
	cancel()
	require.Eventually(t, func() bool { return !h.IsRunning() }, time.Second, time.Millisecond)

	late := NewClient(h, newFakeConn())
	assert.NotPanics(t, func() {
		assert.False(t, late.Queue(NewJSONMessage([]byte(`{"tick":1}`))))
	})
}

func TestQueueToDroppedClientIsRejected(t *testing.T) {
	h, _ := startHub(t)

	slow := newFakeConn()
	slow.block = make(chan struct{})
	defer close(slow.block)

	c := NewClient(h, slow)
	go c.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < sendBuffer*4; i++ {
		h.BroadcastBinary([]byte{byte(i)})
		time.Sleep(100 * time.Microsecond)
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)

	assert.NotPanics(t, func() {
		assert.False(t, c.Queue(NewBinaryMessage([]byte{0xff})))
	})
}

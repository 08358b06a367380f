package realtime

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

func init() {
	initGlog()
}

func initGlog() {
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "INFO")
	flag.Set("v", "0")
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	endTime := time.Now().Add(timeout)
	for time.Now().Before(endTime) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// controllable clock for highlight expiry tests
type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newTestClock() *testClock {
	return &testClock{
		now: time.Date(2025, 6, 26, 12, 0, 0, 0, time.UTC),
	}
}

func (self *testClock) Now() time.Time {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.now
}

func (self *testClock) Advance(d time.Duration) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.now = self.now.Add(d)
}

// captures AfterFunc calls so tests fire timers deterministically
type scheduledCall struct {
	delay time.Duration
	fn    func()
}

type testScheduler struct {
	c chan scheduledCall
}

func newTestScheduler() *testScheduler {
	return &testScheduler{
		c: make(chan scheduledCall, 16),
	}
}

func (self *testScheduler) AfterFunc(d time.Duration, f func()) *time.Timer {
	self.c <- scheduledCall{
		delay: d,
		fn:    f,
	}
	// never fires on its own. The manager only ever calls Stop on it.
	return time.NewTimer(time.Hour)
}

func (self *testScheduler) next(t *testing.T) scheduledCall {
	t.Helper()
	select {
	case call := <-self.c:
		return call
	case <-time.After(5 * time.Second):
		t.Fatal("no timer scheduled before timeout")
		return scheduledCall{}
	}
}

func (self *testScheduler) pending() int {
	return len(self.c)
}

// transport whose dial always fails
type failDialTransport struct {
	mutex sync.Mutex
	dials int
}

func (self *failDialTransport) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	self.mutex.Lock()
	self.dials += 1
	self.mutex.Unlock()
	return nil, fmt.Errorf("dial refused")
}

func (self *failDialTransport) dialCount() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.dials
}

// in-memory duplex text channel double
type memConn struct {
	receive   chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newMemConn() *memConn {
	return &memConn{
		receive: make(chan string, 16),
		closed:  make(chan struct{}),
	}
}

func (self *memConn) deliver(message string) {
	self.receive <- message
}

func (self *memConn) ReadMessage() (string, error) {
	select {
	case message := <-self.receive:
		return message, nil
	case <-self.closed:
		return "", fmt.Errorf("connection closed")
	}
}

func (self *memConn) WriteMessage(message string) error {
	select {
	case <-self.closed:
		return fmt.Errorf("connection closed")
	default:
		return nil
	}
}

func (self *memConn) Close() error {
	self.closeOnce.Do(func() {
		close(self.closed)
	})
	return nil
}

func (self *memConn) isClosed() bool {
	select {
	case <-self.closed:
		return true
	default:
		return false
	}
}

type memTransport struct {
	mutex sync.Mutex
	conns []*memConn
}

func newMemTransport() *memTransport {
	return &memTransport{}
}

func (self *memTransport) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn := newMemConn()
	self.mutex.Lock()
	self.conns = append(self.conns, conn)
	self.mutex.Unlock()
	return conn, nil
}

func (self *memTransport) dialCount() int {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return len(self.conns)
}

func (self *memTransport) latest() *memConn {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if len(self.conns) == 0 {
		return nil
	}
	return self.conns[len(self.conns)-1]
}

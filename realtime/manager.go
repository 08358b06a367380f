package realtime

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
)

type ConnectionState string

const (
	ConnectionStateIdle       ConnectionState = "idle"
	ConnectionStateConnecting ConnectionState = "connecting"
	ConnectionStateOpen       ConnectionState = "open"
	ConnectionStateClosed     ConnectionState = "closed"
)

type ConnectionManagerSettings struct {
	// retry delay is min(BackoffFloor * 2^step, BackoffCeiling) with the
	// step incremented on each close up to BackoffStepCeiling
	BackoffFloor       time.Duration
	BackoffCeiling     time.Duration
	BackoffStepCeiling int
	// injectable for tests
	AfterFunc func(d time.Duration, f func()) *time.Timer
}

func DefaultConnectionManagerSettings() *ConnectionManagerSettings {
	return &ConnectionManagerSettings{
		BackoffFloor:       1 * time.Second,
		BackoffCeiling:     15 * time.Second,
		BackoffStepCeiling: 6,
		AfterFunc:          time.AfterFunc,
	}
}

// ConnectionManager owns the lifecycle of one logical channel: open,
// retry with backoff, teardown. At most one physical attempt and one
// pending retry timer exist at any instant. No failure propagates to
// callers; every failure is expressed as retry scheduling, and the retry
// loop stops only when the activity gate goes false or on explicit
// teardown.
type ConnectionManager struct {
	gate      *ActivityGate
	router    *Router
	transport Transport
	streamUrl string
	auth      *StreamAuth

	settings *ConnectionManagerSettings

	mutex           sync.Mutex
	state           ConnectionState
	backoffStep     int
	shouldReconnect bool
	retryTimer      *time.Timer
	conn            Conn
	attemptCancel   context.CancelFunc
	// bumped by teardown and each attempt so stale callbacks no-op
	attemptId int
}

func NewConnectionManagerWithDefaults(
	gate *ActivityGate,
	router *Router,
	transport Transport,
	streamUrl string,
	auth *StreamAuth,
) *ConnectionManager {
	return NewConnectionManager(gate, router, transport, streamUrl, auth, DefaultConnectionManagerSettings())
}

func NewConnectionManager(
	gate *ActivityGate,
	router *Router,
	transport Transport,
	streamUrl string,
	auth *StreamAuth,
	settings *ConnectionManagerSettings,
) *ConnectionManager {
	// private copy, so defaults never leak into a shared settings value
	settingsCopy := *settings
	if settingsCopy.AfterFunc == nil {
		settingsCopy.AfterFunc = time.AfterFunc
	}
	if auth == nil {
		auth = &StreamAuth{
			InstanceId: NewId(),
		}
	}
	return &ConnectionManager{
		gate:      gate,
		router:    router,
		transport: transport,
		streamUrl: streamUrl,
		auth:      auth,
		settings:  &settingsCopy,
		state:     ConnectionStateIdle,
	}
}

func (self *ConnectionManager) State() ConnectionState {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.state
}

// Ensure re-evaluates the activity gate. Gate false tears down any open
// or pending connection and resets backoff. Gate true with nothing open
// or in flight starts an immediate attempt.
func (self *ConnectionManager) Ensure() {
	if self.gate != nil && !self.gate.ShouldMaintainChannel() {
		self.Teardown()
		return
	}

	self.mutex.Lock()
	self.shouldReconnect = true
	busy := self.state == ConnectionStateConnecting || self.state == ConnectionStateOpen
	self.mutex.Unlock()

	if !busy {
		self.Connect(0)
	}
}

// Connect schedules a single attempt after the delay, or performs it
// immediately for a delay <= 0. Cancels any previously scheduled attempt
// first.
func (self *ConnectionManager) Connect(delay time.Duration) {
	self.mutex.Lock()
	self.shouldReconnect = true
	self.clearRetryTimer()
	if delay <= 0 {
		self.mutex.Unlock()
		self.connectNow()
		return
	}
	self.scheduleConnect(delay)
	self.mutex.Unlock()
}

// caller must hold the mutex
func (self *ConnectionManager) scheduleConnect(delay time.Duration) {
	self.retryTimer = self.settings.AfterFunc(delay, func() {
		self.mutex.Lock()
		self.retryTimer = nil
		self.mutex.Unlock()
		self.connectNow()
	})
}

// Teardown cancels any pending retry, closes an open connection, and
// resets backoff. Idempotent. The only way to clear shouldReconnect.
func (self *ConnectionManager) Teardown() {
	self.mutex.Lock()
	self.shouldReconnect = false
	self.backoffStep = 0
	self.clearRetryTimer()
	self.attemptId += 1
	if cancel := self.attemptCancel; cancel != nil {
		self.attemptCancel = nil
		cancel()
	}
	conn := self.conn
	self.conn = nil
	if self.state != ConnectionStateIdle {
		self.state = ConnectionStateClosed
	}
	self.mutex.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (self *ConnectionManager) connectNow() {
	self.mutex.Lock()
	if !self.shouldReconnect {
		// torn down. A retry timer that fired concurrently with its
		// Stop lands here and must not resurrect the channel.
		self.mutex.Unlock()
		return
	}
	if self.state == ConnectionStateConnecting || self.state == ConnectionStateOpen {
		// one outstanding attempt at a time
		self.mutex.Unlock()
		return
	}
	self.state = ConnectionStateConnecting
	self.attemptId += 1
	attemptId := self.attemptId
	cancelCtx, cancel := context.WithCancel(context.Background())
	self.attemptCancel = cancel
	self.mutex.Unlock()

	go self.runAttempt(cancelCtx, attemptId)
}

func (self *ConnectionManager) runAttempt(ctx context.Context, attemptId int) {
	header := http.Header{}
	if self.auth.InstanceId != (Id{}) {
		header.Set("X-Instance-Id", self.auth.InstanceId.String())
	}
	if self.auth.SessionToken != "" {
		header.Set("Authorization", "Bearer "+self.auth.SessionToken)
	}

	conn, err := self.transport.Dial(ctx, self.streamUrl, header)
	if err != nil {
		// a failed dial, including a malformed endpoint, feeds the same
		// path as a close
		glog.Infof("[rt]connect error %s = %s\n", self.auth.InstanceId, err)
		self.handleClose(attemptId)
		return
	}

	self.mutex.Lock()
	if attemptId != self.attemptId {
		// torn down while dialing
		self.mutex.Unlock()
		conn.Close()
		return
	}
	self.state = ConnectionStateOpen
	self.backoffStep = 0
	self.conn = conn
	self.mutex.Unlock()

	glog.V(2).Infof("[rt]open %s\n", self.auth.InstanceId)

	// single consumer, frames handled in receipt order.
	// error and close collapse into one exit.
	for {
		message, err := conn.ReadMessage()
		if err != nil {
			glog.V(2).Infof("[rt]%s<- closed = %s\n", self.auth.InstanceId, err)
			break
		}
		if self.router != nil {
			self.router.Route(message)
		}
	}

	conn.Close()
	self.handleClose(attemptId)
}

func (self *ConnectionManager) handleClose(attemptId int) {
	self.mutex.Lock()
	if attemptId != self.attemptId {
		// superseded by teardown or a newer attempt
		self.mutex.Unlock()
		return
	}
	self.state = ConnectionStateClosed
	self.conn = nil
	self.attemptCancel = nil
	if !self.shouldReconnect {
		self.mutex.Unlock()
		return
	}
	if self.backoffStep < self.settings.BackoffStepCeiling {
		self.backoffStep += 1
	}
	delay := self.settings.BackoffFloor << self.backoffStep
	if self.settings.BackoffCeiling < delay {
		delay = self.settings.BackoffCeiling
	}
	// schedule under the same lock as the decision, so a concurrent
	// teardown either clears shouldReconnect before the check above or
	// finds the timer and cancels it
	self.clearRetryTimer()
	self.scheduleConnect(delay)
	self.mutex.Unlock()

	glog.Infof("[rt]retry %s in %s\n", self.auth.InstanceId, delay)
}

// caller must hold the mutex
func (self *ConnectionManager) clearRetryTimer() {
	if timer := self.retryTimer; timer != nil {
		self.retryTimer = nil
		timer.Stop()
	}
}

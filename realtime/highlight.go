package realtime

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/golang/glog"
)

type HighlightSettings struct {
	// how long an identity stays flagged as freshly changed
	Dwell time.Duration
	// injectable for tests
	Clock     func() time.Time
	AfterFunc func(d time.Duration, f func()) *time.Timer
}

func DefaultHighlightSettings() *HighlightSettings {
	return &HighlightSettings{
		Dwell:     1400 * time.Millisecond,
		Clock:     time.Now,
		AfterFunc: time.AfterFunc,
	}
}

// HighlightTracker maps a record identity to an expiry.
// Entries are deleted lazily on read once expired, and eagerly by a
// per-mark sweep timer so a visible highlight clears without further
// mutation traffic.
type HighlightTracker struct {
	isViewLive    func() bool
	requestRender func()

	settings *HighlightSettings

	mutex    sync.Mutex
	expiries map[string]time.Time
}

func NewHighlightTrackerWithDefaults(isViewLive func() bool, requestRender func()) *HighlightTracker {
	return NewHighlightTracker(isViewLive, requestRender, DefaultHighlightSettings())
}

func NewHighlightTracker(
	isViewLive func() bool,
	requestRender func(),
	settings *HighlightSettings,
) *HighlightTracker {
	// private copy, so defaults never leak into a shared settings value
	settingsCopy := *settings
	if settingsCopy.Clock == nil {
		settingsCopy.Clock = time.Now
	}
	if settingsCopy.AfterFunc == nil {
		settingsCopy.AfterFunc = time.AfterFunc
	}
	return &HighlightTracker{
		isViewLive:    isViewLive,
		requestRender: requestRender,
		settings:      &settingsCopy,
		expiries:      map[string]time.Time{},
	}
}

func (self *HighlightTracker) Mark(identity string) {
	self.mutex.Lock()
	self.expiries[identity] = self.settings.Clock().Add(self.settings.Dwell)
	self.mutex.Unlock()

	// one timer per mark. A re-mark leaves the older timer in place,
	// which fires before the new expiry and is ignored by sweep.
	self.settings.AfterFunc(self.settings.Dwell, func() {
		self.sweep(identity)
	})
}

func (self *HighlightTracker) IsActive(identity string) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	expiry, ok := self.expiries[identity]
	if !ok {
		return false
	}
	if !self.settings.Clock().Before(expiry) {
		delete(self.expiries, identity)
		return false
	}
	return true
}

// ActiveIdentities returns the identities still inside their dwell,
// dropping expired entries on the way.
func (self *HighlightTracker) ActiveIdentities() []string {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	now := self.settings.Clock()
	for _, identity := range maps.Keys(self.expiries) {
		if !now.Before(self.expiries[identity]) {
			delete(self.expiries, identity)
		}
	}
	return maps.Keys(self.expiries)
}

func (self *HighlightTracker) Clear(identity string) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	delete(self.expiries, identity)
}

func (self *HighlightTracker) sweep(identity string) {
	self.mutex.Lock()
	expiry, ok := self.expiries[identity]
	expired := ok && !self.settings.Clock().Before(expiry)
	if expired {
		delete(self.expiries, identity)
	}
	self.mutex.Unlock()

	if !expired {
		return
	}
	glog.V(2).Infof("[hl]expire %s\n", identity)
	if self.isViewLive != nil && !self.isViewLive() {
		return
	}
	if self.requestRender != nil {
		self.requestRender()
	}
}

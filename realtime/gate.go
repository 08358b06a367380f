package realtime

// ActivityGate decides whether the channel should be open right now.
// Pure predicate over host-supplied accessors, no state of its own.
// The connection manager re-evaluates it on every Ensure.
//
// A nil accessor defaults to the permissive answer so a partially wired
// host still connects.
type ActivityGate struct {
	// the active view is one that displays live data
	IsViewLive func() bool
	// the host is mid initial full load
	IsBootstrapping func() bool
	// the current principal is entitled to receive updates
	HasQualifyingPrincipal func() bool
}

func (self *ActivityGate) ShouldMaintainChannel() bool {
	if self.IsViewLive != nil && !self.IsViewLive() {
		return false
	}
	if self.IsBootstrapping != nil && self.IsBootstrapping() {
		return false
	}
	if self.HasQualifyingPrincipal != nil && !self.HasQualifyingPrincipal() {
		return false
	}
	return true
}

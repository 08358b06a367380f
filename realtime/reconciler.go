package realtime

import (
	"github.com/golang/glog"
)

// Reconciler merges channel-origin mutations into the local collection.
// Only the reconciler mutates the collection, and highlight marks happen
// only here so locally initiated rest actions never flag rows as fresh.
type Reconciler struct {
	collection *Collection
	highlights *HighlightTracker
	normalize  NormalizeFunc

	isViewLive      func() bool
	isBootstrapping func() bool
	requestRender   func()
}

func NewReconciler(
	collection *Collection,
	highlights *HighlightTracker,
	normalize NormalizeFunc,
	isViewLive func() bool,
	isBootstrapping func() bool,
	requestRender func(),
) *Reconciler {
	if normalize == nil {
		normalize = NormalizeEntry
	}
	return &Reconciler{
		collection:      collection,
		highlights:      highlights,
		normalize:       normalize,
		isViewLive:      isViewLive,
		isBootstrapping: isBootstrapping,
		requestRender:   requestRender,
	}
}

// Upsert applies one created/updated payload. Replaces in place on
// identity match, else appends. Idempotent aside from highlight timing.
func (self *Reconciler) Upsert(payload map[string]any) {
	record := self.normalize(payload)
	if record == nil || record.Identity == "" {
		// failed domain validation, drop this record only
		glog.V(2).Infof("[rc]drop upsert\n")
		return
	}

	self.collection.upsert(record)
	self.highlights.Mark(record.Identity)
	self.maybeRender()
}

// Remove applies one deleted payload. Removing an absent identity is a
// no-op with no render trigger.
func (self *Reconciler) Remove(payload any) {
	identity := resolveIdentity(payload)
	if identity == "" {
		glog.V(2).Infof("[rc]drop remove\n")
		return
	}
	if !self.collection.remove(identity) {
		return
	}
	self.highlights.Clear(identity)
	self.maybeRender()
}

func (self *Reconciler) maybeRender() {
	if self.isViewLive != nil && !self.isViewLive() {
		return
	}
	if self.isBootstrapping != nil && self.isBootstrapping() {
		return
	}
	if self.requestRender != nil {
		self.requestRender()
	}
}

func resolveIdentity(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case map[string]any:
		if identity, ok := v["id"].(string); ok {
			return identity
		}
	}
	return ""
}

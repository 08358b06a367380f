package realtime

import (
	"encoding/json"

	"github.com/golang/glog"
)

type RouterSettings struct {
	// record kind that namespaces the message types, e.g. "entry" for
	// entry.created / entry.updated / entry.deleted
	RecordKind string
}

func DefaultRouterSettings() *RouterSettings {
	return &RouterSettings{
		RecordKind: "entry",
	}
}

// Router parses one wire frame and dispatches on the envelope type.
// Unparseable frames and unrecognized types are expected noise
// (partial frames, the server `connected` greeting, heartbeats) and are
// discarded without error.
type Router struct {
	reconciler *Reconciler

	createdType string
	updatedType string
	deletedType string
}

func NewRouterWithDefaults(reconciler *Reconciler) *Router {
	return NewRouter(reconciler, DefaultRouterSettings())
}

func NewRouter(reconciler *Reconciler, settings *RouterSettings) *Router {
	kind := settings.RecordKind
	if kind == "" {
		kind = "entry"
	}
	return &Router{
		reconciler:  reconciler,
		createdType: kind + ".created",
		updatedType: kind + ".updated",
		deletedType: kind + ".deleted",
	}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (self *Router) Route(rawText string) {
	var env envelope
	if err := json.Unmarshal([]byte(rawText), &env); err != nil {
		glog.V(2).Infof("[rt]drop frame = %s\n", err)
		return
	}
	if env.Type == "" {
		glog.V(2).Infof("[rt]drop frame = missing type\n")
		return
	}

	switch env.Type {
	case self.createdType, self.updatedType:
		var payload map[string]any
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			glog.V(2).Infof("[rt]drop %s = %s\n", env.Type, err)
			return
		}
		self.reconciler.Upsert(payload)
	case self.deletedType:
		// payload is either a bare identity or an object with an id field
		var payload any
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			glog.V(2).Infof("[rt]drop %s = %s\n", env.Type, err)
			return
		}
		self.reconciler.Remove(payload)
	default:
		glog.V(2).Infof("[rt]ignore %s\n", env.Type)
	}
}

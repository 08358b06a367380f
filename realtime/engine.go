package realtime

// Engine wires the gate, connection manager, router, reconciler,
// collection and highlight tracker for one logical channel. The host
// integration surface is Ensure (call on navigation, auth and bootstrap
// changes) and TeardownOnUnload (call once at shutdown).

type EngineSettings struct {
	// either StreamUrl directly, or Origin + ApiUrl to derive it
	StreamUrl string
	Origin    string
	ApiUrl    string

	SessionToken string

	// host collaborators
	Normalize              NormalizeFunc
	IsViewLive             func() bool
	IsBootstrapping        func() bool
	HasQualifyingPrincipal func() bool
	RequestRender          func()

	Transport                 Transport
	RouterSettings            *RouterSettings
	HighlightSettings         *HighlightSettings
	ConnectionManagerSettings *ConnectionManagerSettings
}

func DefaultEngineSettings() *EngineSettings {
	return &EngineSettings{
		Normalize:                 NormalizeEntry,
		Transport:                 NewWebSocketTransportWithDefaults(),
		RouterSettings:            DefaultRouterSettings(),
		HighlightSettings:         DefaultHighlightSettings(),
		ConnectionManagerSettings: DefaultConnectionManagerSettings(),
	}
}

type Engine struct {
	collection *Collection
	highlights *HighlightTracker
	reconciler *Reconciler
	router     *Router
	gate       *ActivityGate
	manager    *ConnectionManager
}

func NewEngine(settings *EngineSettings) (*Engine, error) {
	streamUrl := settings.StreamUrl
	if streamUrl == "" {
		var err error
		streamUrl, err = StreamUrl(settings.Origin, settings.ApiUrl)
		if err != nil {
			return nil, err
		}
	}

	transport := settings.Transport
	if transport == nil {
		transport = NewWebSocketTransportWithDefaults()
	}
	routerSettings := settings.RouterSettings
	if routerSettings == nil {
		routerSettings = DefaultRouterSettings()
	}
	highlightSettings := settings.HighlightSettings
	if highlightSettings == nil {
		highlightSettings = DefaultHighlightSettings()
	}
	managerSettings := settings.ConnectionManagerSettings
	if managerSettings == nil {
		managerSettings = DefaultConnectionManagerSettings()
	}

	collection := NewCollection()
	highlights := NewHighlightTracker(settings.IsViewLive, settings.RequestRender, highlightSettings)
	reconciler := NewReconciler(
		collection,
		highlights,
		settings.Normalize,
		settings.IsViewLive,
		settings.IsBootstrapping,
		settings.RequestRender,
	)
	router := NewRouter(reconciler, routerSettings)
	gate := &ActivityGate{
		IsViewLive:             settings.IsViewLive,
		IsBootstrapping:        settings.IsBootstrapping,
		HasQualifyingPrincipal: settings.HasQualifyingPrincipal,
	}
	auth := &StreamAuth{
		SessionToken: settings.SessionToken,
		InstanceId:   NewId(),
	}
	manager := NewConnectionManager(gate, router, transport, streamUrl, auth, managerSettings)

	return &Engine{
		collection: collection,
		highlights: highlights,
		reconciler: reconciler,
		router:     router,
		gate:       gate,
		manager:    manager,
	}, nil
}

func (self *Engine) Ensure() {
	self.manager.Ensure()
}

func (self *Engine) TeardownOnUnload() {
	self.manager.Teardown()
}

func (self *Engine) Collection() *Collection {
	return self.collection
}

func (self *Engine) Highlights() *HighlightTracker {
	return self.highlights
}

func (self *Engine) ConnectionState() ConnectionState {
	return self.manager.State()
}

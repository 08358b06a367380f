package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golang/glog"
)

// stream endpoint suffix appended to the api base path
const StreamPathSuffix = "/entries/stream"

// Conn is one open duplex text channel. ReadMessage blocks for the next
// text frame and returns an error on close. Any close reason surfaces as
// a read error; the manager collapses error and close into one path.
type Conn interface {
	ReadMessage() (string, error)
	WriteMessage(message string) error
	Close() error
}

// Transport opens connections. Implementations: the websocket transport
// below, and in-memory doubles in tests.
type Transport interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// StreamUrl derives the channel endpoint from the configured api base:
// resolve a relative base against the page origin, strip any query and
// fragment, append the stream suffix, and upgrade http->ws, https->wss.
// Deterministic and side effect free.
func StreamUrl(origin string, apiBase string) (string, error) {
	base, err := url.Parse(apiBase)
	if err != nil {
		return "", err
	}
	if !base.IsAbs() {
		if origin == "" {
			return "", fmt.Errorf("relative api base %q needs an origin", apiBase)
		}
		originUrl, err := url.Parse(origin)
		if err != nil {
			return "", err
		}
		base = originUrl.ResolveReference(base)
	}

	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	case "ws", "wss":
		// already upgraded
	default:
		return "", fmt.Errorf("cannot derive stream url from scheme %q", base.Scheme)
	}

	base.RawQuery = ""
	base.Fragment = ""
	base.Path = strings.TrimSuffix(base.Path, "/") + StreamPathSuffix

	return base.String(), nil
}

type WebSocketTransportSettings struct {
	WsHandshakeTimeout time.Duration
	WriteTimeout       time.Duration
}

func DefaultWebSocketTransportSettings() *WebSocketTransportSettings {
	return &WebSocketTransportSettings{
		WsHandshakeTimeout: 2 * time.Second,
		WriteTimeout:       5 * time.Second,
	}
}

type WebSocketTransport struct {
	settings *WebSocketTransportSettings
}

func NewWebSocketTransportWithDefaults() *WebSocketTransport {
	return NewWebSocketTransport(DefaultWebSocketTransportSettings())
}

func NewWebSocketTransport(settings *WebSocketTransportSettings) *WebSocketTransport {
	return &WebSocketTransport{
		settings: settings,
	}
}

func (self *WebSocketTransport) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: self.settings.WsHandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return &webSocketConn{
		ws:       ws,
		settings: self.settings,
	}, nil
}

type webSocketConn struct {
	ws       *websocket.Conn
	settings *WebSocketTransportSettings
}

func (self *webSocketConn) ReadMessage() (string, error) {
	for {
		messageType, message, err := self.ws.ReadMessage()
		if err != nil {
			return "", err
		}
		switch messageType {
		case websocket.TextMessage:
			if 0 == len(message) {
				// keepalive noise
				glog.V(2).Infof("[ws]ping<-\n")
				continue
			}
			return string(message), nil
		default:
			glog.V(2).Infof("[ws]other=%d<-\n", messageType)
		}
	}
}

func (self *webSocketConn) WriteMessage(message string) error {
	self.ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	return self.ws.WriteMessage(websocket.TextMessage, []byte(message))
}

func (self *webSocketConn) Close() error {
	return self.ws.Close()
}

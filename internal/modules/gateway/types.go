package gateway

import (
	"sync"

	pkgredis "github.com/geopulse/core/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceRealtime = "/realtime"

	redisChanRealtime = "gp:gateway:realtime"

	eventConnect         = "GATEWAY_CONNECT"
	eventAuthFailed      = "AUTH_FAILED"
	eventPresenceUpdated = "PRESENCE_UPDATED"
	eventLocationUpdated = "LOCATION_UPDATED"

	messageWatch   = "watch"
	messageUnwatch = "unwatch"
)

// Message is the envelope used by hub broadcasts and Redis fan-out.
// Origin carries the publishing instance's id so an instance can skip
// messages it already delivered locally.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
	Origin  string      `json:"origin,omitempty"`
}

type gatewayPayload struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Room string      `json:"room,omitempty"`
}

type clientMeta struct {
	sid string
	uid string
}

// TokenValidator resolves a raw token to the authenticated uid.
type TokenValidator func(token string) (uid string, ok bool)

// LivenessSink receives a signal whenever a connected client shows
// activity, so presence lastSeen stays fresh for idle-but-open sockets.
type LivenessSink func(uid string)

// Hub fans presence and location updates out to connected clients and,
// via Redis, to the other server instances.
type Hub struct {
	mu sync.RWMutex

	sidUID   map[string]string
	sidRooms map[string]map[string]struct{}

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta

	instanceID string
	rc         *pkgredis.Client
	logger     *zap.Logger
	sio        *socketio.Server
	validate   TokenValidator
	alive      LivenessSink
}

// UserRoom names the room carrying one user's updates.
func UserRoom(uid string) string { return "user:" + uid }

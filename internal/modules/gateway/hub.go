package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/geopulse/core/internal/pkg/events"
	pkgredis "github.com/geopulse/core/internal/pkg/redis"
	"github.com/google/uuid"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func NewHub(rc *pkgredis.Client, logger *zap.Logger, validate TokenValidator, alive LivenessSink) *Hub {
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		sidUID:     make(map[string]string),
		sidRooms:   make(map[string]map[string]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		instanceID: uuid.NewString(),
		rc:         rc,
		logger:     logger,
		sio:        sio,
		validate:   validate,
		alive:      alive,
	}
	h.registerNamespace()
	return h
}

// livenessInterval is how often connected uids get a lastSeen touch.
// Must stay well inside the presence watchdog's staleness window.
const livenessInterval = time.Minute

// Run drives the hub loop until ctx is cancelled. It also consumes the
// in-process event bus and the Redis channel from peer instances.
func (h *Hub) Run(ctx context.Context, bus *events.Bus) {
	go h.subscribeRedis(ctx)
	go h.subscribeBus(ctx, bus)

	heartbeat := time.NewTicker(livenessInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return

		case <-heartbeat.C:
			h.touchConnected()

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.deliver(msg)
			msg.Origin = h.instanceID
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rc.Publish(ctx, redisChanRealtime, string(data)); err != nil && h.logger != nil {
				h.logger.Warn("gateway publish failed", zap.Error(err))
			}
		}
	}
}

// subscribeBus bridges domain events onto gateway broadcasts.
func (h *Hub) subscribeBus(ctx context.Context, bus *events.Bus) {
	presenceCh, cancelPresence := bus.Subscribe(events.TopicPresenceUpdated)
	defer cancelPresence()
	locationCh, cancelLocation := bus.Subscribe(events.TopicLocationUpdated)
	defer cancelLocation()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-presenceCh:
			if !ok {
				return
			}
			h.Broadcast(eventPresenceUpdated, ev.Payload, UserRoom(ev.UID))
		case ev, ok := <-locationCh:
			if !ok {
				return
			}
			h.Broadcast(eventLocationUpdated, ev.Payload, UserRoom(ev.UID))
		}
	}
}

func (h *Hub) registerClient(c clientMeta) {
	h.mu.Lock()
	h.sidUID[c.sid] = c.uid
	rooms := make(map[string]struct{})
	rooms[UserRoom(c.uid)] = struct{}{}
	h.sidRooms[c.sid] = rooms
	h.mu.Unlock()

	h.touchUser(c.uid)
}

// touchConnected refreshes lastSeen for every uid with an open socket,
// including ones that have gone quiet.
func (h *Hub) touchConnected() {
	h.mu.RLock()
	uids := make(map[string]struct{}, len(h.sidUID))
	for _, uid := range h.sidUID {
		uids[uid] = struct{}{}
	}
	h.mu.RUnlock()

	for uid := range uids {
		h.touchUser(uid)
	}
}

func (h *Hub) touchUser(uid string) {
	if h.alive == nil || uid == "" {
		return
	}
	h.alive(uid)
}

func (h *Hub) unregisterClient(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sidUID, c.sid)
	delete(h.sidRooms, c.sid)
}

func (h *Hub) joinRoom(sid, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rooms, ok := h.sidRooms[sid]; ok {
		rooms[room] = struct{}{}
	}
}

func (h *Hub) leaveRoom(sid, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rooms, ok := h.sidRooms[sid]; ok {
		delete(rooms, room)
	}
}

// Broadcast queues an event for the given room, or for everyone when
// room is empty.
func (h *Hub) Broadcast(event string, payload interface{}, room string) {
	h.broadcast <- Message{Event: event, Payload: payload, Room: room}
}

// ClientCount reports connected clients, optionally only those watching
// the given room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room == "" {
		return len(h.sidUID)
	}
	n := 0
	for _, rooms := range h.sidRooms {
		if _, ok := rooms[room]; ok {
			n++
		}
	}
	return n
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

package gateway

import (
	"context"
	"encoding/json"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

func gatewayMessageFormat(event string, payload interface{}, room string) gatewayPayload {
	return gatewayPayload{Type: event, Data: payload, Room: room}
}

// deliver emits a message on the realtime namespace. Room delivery goes
// through socket.io rooms so only watchers of that user receive it.
func (h *Hub) deliver(msg Message) {
	ns := h.sio.Of(namespaceRealtime, nil)
	envelope := gatewayMessageFormat(msg.Event, msg.Payload, msg.Room)
	if msg.Room == "" {
		ns.Emit("message", envelope)
		return
	}
	ns.To(socketio.Room(msg.Room)).Emit("message", envelope)
}

// subscribeRedis listens for broadcasts published by peer instances.
// Messages this instance published are skipped, it already delivered
// them locally.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanRealtime)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				continue
			}
			if msg.Origin == h.instanceID {
				continue
			}
			h.deliver(msg)
		}
	}
}

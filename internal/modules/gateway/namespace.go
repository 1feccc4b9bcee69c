package gateway

import (
	"encoding/json"
	"strings"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

type inboundMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func (h *Hub) registerNamespace() {
	ns := h.sio.Of(namespaceRealtime, nil)
	_ = ns.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}

		token := normalizeToken(extractToken(client))
		uid, valid := "", false
		if token != "" && h.validate != nil {
			uid, valid = h.validate(token)
		}
		if !valid {
			_ = client.Emit("message", gatewayMessageFormat(eventAuthFailed, "auth failed", ""))
			client.Disconnect(true)
			return
		}

		sid := string(client.Id())
		client.Join(socketio.Room(UserRoom(uid)))
		h.register <- clientMeta{sid: sid, uid: uid}
		_ = client.Emit("message", gatewayMessageFormat(eventConnect, "WebSocket connected", ""))

		_ = client.On("message", func(eventArgs ...any) {
			h.touchUser(uid)
			msg, ok := parseInboundMessage(eventArgs...)
			if !ok {
				return
			}
			target := strFromAny(msg.Payload["uid"])
			if target == "" {
				return
			}
			room := UserRoom(target)
			switch msg.Type {
			case messageWatch:
				client.Join(socketio.Room(room))
				h.joinRoom(sid, room)
			case messageUnwatch:
				if room == UserRoom(uid) {
					return
				}
				client.Leave(socketio.Room(room))
				h.leaveRoom(sid, room)
			}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.unregister <- clientMeta{sid: sid, uid: uid}
		})
	})
}

func extractToken(client *socketio.Socket) string {
	handshake := client.Handshake()
	if handshake == nil {
		return ""
	}
	if token := firstValueFromMultiMap(handshake.Query, "token"); token != "" {
		return token
	}
	return firstValueFromMultiMap(handshake.Headers, "authorization")
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

func parseInboundMessage(args ...any) (inboundMessage, bool) {
	if len(args) == 0 || args[0] == nil {
		return inboundMessage{}, false
	}

	var msg inboundMessage
	switch raw := args[0].(type) {
	case map[string]interface{}:
		msg.Type = strFromAny(raw["type"])
		msg.Payload, _ = raw["payload"].(map[string]interface{})
	case string:
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return inboundMessage{}, false
		}
	case []byte:
		if err := json.Unmarshal(raw, &msg); err != nil {
			return inboundMessage{}, false
		}
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return inboundMessage{}, false
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return inboundMessage{}, false
		}
	}

	msg.Type = strings.TrimSpace(msg.Type)
	if msg.Type == "" {
		return inboundMessage{}, false
	}
	if msg.Payload == nil {
		msg.Payload = map[string]interface{}{}
	}
	return msg, true
}

func strFromAny(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

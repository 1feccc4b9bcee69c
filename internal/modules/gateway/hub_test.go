package gateway

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type aliveRecorder struct {
	mu   sync.Mutex
	uids []string
}

func (r *aliveRecorder) sink(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uids = append(r.uids, uid)
}

func (r *aliveRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uids...)
}

func newTestHub(alive LivenessSink) *Hub {
	return NewHub(nil, zap.NewNop(), func(string) (string, bool) { return "", false }, alive)
}

func TestRegisterClientTouchesLiveness(t *testing.T) {
	rec := &aliveRecorder{}
	h := newTestHub(rec.sink)

	h.registerClient(clientMeta{sid: "s1", uid: "u1"})

	assert.Equal(t, []string{"u1"}, rec.seen())
	assert.Equal(t, 1, h.ClientCount(UserRoom("u1")))
}

func TestTouchConnectedCoversIdleSockets(t *testing.T) {
	rec := &aliveRecorder{}
	h := newTestHub(rec.sink)

	// Two sockets for u1, one for u2. No message traffic at all.
	h.registerClient(clientMeta{sid: "s1", uid: "u1"})
	h.registerClient(clientMeta{sid: "s2", uid: "u1"})
	h.registerClient(clientMeta{sid: "s3", uid: "u2"})
	before := len(rec.seen())

	h.touchConnected()

	got := rec.seen()[before:]
	assert.Len(t, got, 2, "each connected uid touched once per sweep")
	assert.ElementsMatch(t, []string{"u1", "u2"}, got)
}

func TestTouchConnectedAfterDisconnect(t *testing.T) {
	rec := &aliveRecorder{}
	h := newTestHub(rec.sink)

	h.registerClient(clientMeta{sid: "s1", uid: "u1"})
	h.unregisterClient(clientMeta{sid: "s1", uid: "u1"})
	before := len(rec.seen())

	h.touchConnected()

	assert.Empty(t, rec.seen()[before:], "gone sockets no longer refresh lastSeen")
}

func TestNilSinkIsSafe(t *testing.T) {
	h := newTestHub(nil)
	h.registerClient(clientMeta{sid: "s1", uid: "u1"})
	h.touchConnected()
}

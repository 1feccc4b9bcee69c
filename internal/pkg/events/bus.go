package events

import "sync"

// Topics published by the stores.
const (
	TopicPresenceUpdated = "presence.updated"
	TopicLocationUpdated = "location.updated"
)

// Event is a single update delivered to subscribers.
type Event struct {
	Topic   string      `json:"topic"`
	UID     string      `json:"uid"`
	Payload interface{} `json:"payload"`
}

const subscriberBuffer = 16

// Bus is an in-process publish/subscribe hub. Subscribe returns a receive
// channel and an unsubscribe handle; the stream is infinite until the handle
// is called, after which the channel is closed.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a listener on a topic. The unsubscribe func is
// idempotent and safe to call concurrently with Publish.
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[topic]; !ok {
		b.subs[topic] = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if listeners, ok := b.subs[topic]; ok {
				delete(listeners, id)
				if len(listeners) == 0 {
					delete(b.subs, topic)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers of its topic.
// Slow subscribers whose buffer is full miss the event rather than
// blocking the publisher.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports the number of listeners on a topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

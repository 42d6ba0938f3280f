// Package events fans ledger event lines out to any number of subscribers
// such as websocket viewers.
package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the number of lines held for a slow subscriber before
// new lines are dropped for it.
const DefaultBuffer = 100

// Events maintains a mapping of subscriber id and channels so goroutines
// can subscribe to and receive event lines.
type Events struct {
	mu     sync.RWMutex
	subs   map[string]chan string
	buffer int
}

// New constructs an events value. A buffer of zero uses DefaultBuffer.
func New(buffer int) *Events {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Events{
		subs:   make(map[string]chan string),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its id and the channel
// the event lines are delivered on.
func (evt *Events) Subscribe() (string, <-chan string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan string, evt.buffer)
	evt.subs[id] = ch

	return id, ch
}

// Unsubscribe closes and removes the channel for the subscriber.
func (evt *Events) Unsubscribe(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)
	return nil
}

// Subscribers returns the number of active subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Send delivers the line to every subscriber. Send never blocks; a
// subscriber with a full buffer misses the line.
func (evt *Events) Send(line string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}

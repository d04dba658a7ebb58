// Package events provides the in-process event bus that decouples the
// inventory core from side-effect collaborators such as document generation
// and the websocket stream.
package events

import (
	"sync"
	"time"
)

// Type identifies the kind of ledger event
type Type string

const (
	// Event types
	ItemRegistered Type = "item_registered"
	ItemRemoved    Type = "item_removed"
	ItemDamaged    Type = "item_damaged"
	ItemRepaired   Type = "item_repaired"
	ItemRetired    Type = "item_retired"
	LoanCreated    Type = "loan_created"
	LoanReturned   Type = "loan_returned"
	GroupCreated   Type = "group_created"
	GroupReturned  Type = "group_returned"
)

// Event describes one completed mutation.
type Event struct {
	Type     Type      `json:"type"`
	ItemCode string    `json:"item_code,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
	LoanID   uint      `json:"loan_id,omitempty"`
	GroupID  uint      `json:"group_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	At       time.Time `json:"at"`
}

// Bus fans events out to subscribers. Publishing never blocks; a subscriber
// that falls behind loses events rather than stalling the core.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber channel.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 64)
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes a subscriber channel and closes it.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish delivers an event to every subscriber.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

package store

import (
	"sync"
)

// ChangeKind tells subscribers what happened to an entry.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent describes a mutation of the pain log.
type ChangeEvent struct {
	Kind    ChangeKind
	UserID  string
	EntryID string
}

// Notifier fans change events out to subscribers. Stores publish an event
// after every successful save, update, or delete so that live views can
// re-fetch their range.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(ChangeEvent)
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(ChangeEvent))}
}

// Subscribe registers a callback and returns an unsubscribe function.
func (n *Notifier) Subscribe(cb func(ChangeEvent)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	n.subs[id] = cb

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish delivers an event to every current subscriber. Callbacks run
// synchronously on the caller's goroutine and must not block.
func (n *Notifier) Publish(ev ChangeEvent) {
	n.mu.Lock()
	subs := make([]func(ChangeEvent), 0, len(n.subs))
	for _, cb := range n.subs {
		subs = append(subs, cb)
	}
	n.mu.Unlock()

	for _, cb := range subs {
		cb(ev)
	}
}

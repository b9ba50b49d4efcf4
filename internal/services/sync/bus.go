// Package sync is the in-process broadcast channel that keeps already
// rendered representations of an item consistent with out-of-band
// like/favorite/exile/recall mutations.
package sync

import (
	stdsync "sync"
)

type EventKind string

const (
	EventLike     EventKind = "like"
	EventFavorite EventKind = "favorite"
	EventExile    EventKind = "exile"
	EventRecall   EventKind = "recall"
)

type Event struct {
	ItemID   int64     `json:"item_id"`
	Kind     EventKind `json:"kind"`
	NewState bool      `json:"new_state"`
}

const subscriberBuffer = 16

// Bus fans events out to every subscriber. Publishing never blocks: a
// subscriber that stopped draining its channel loses events instead of
// stalling producers.
type Bus struct {
	mu     stdsync.Mutex
	nextID int64
	subs   map[int64]chan Event
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int64]chan Event)}
}

// Subscribe registers a listener. The returned cancel func must be
// called when the view goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, sub := range b.subs {
		select {
		case sub <- event:
		default:
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub)
	}
}

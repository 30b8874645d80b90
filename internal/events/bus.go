package events

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// RecordListener processes published records
type RecordListener interface {
	HandleRecord(record *Record) error
	Priority() int
	ID() string
}

// Bus fans records out to listeners
type Bus struct {
	listeners map[RecordKind][]RecordListener
	mu        sync.RWMutex
}

// NewBus creates a new record bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[RecordKind][]RecordListener),
	}
}

// Subscribe adds a listener for one record kind
func (b *Bus) Subscribe(kind RecordKind, listener RecordListener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[kind] = append(b.listeners[kind], listener)
	b.sort(kind)

	log.Printf("EventBus: Subscribed listener %s to %s with priority %d",
		listener.ID(), kind, listener.Priority())
}

// SubscribeAll adds a listener for every record kind
func (b *Bus) SubscribeAll(listener RecordListener) {
	for _, kind := range AllRecordKinds {
		b.Subscribe(kind, listener)
	}
}

// Unsubscribe removes a listener from one record kind
func (b *Bus) Unsubscribe(kind RecordKind, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[kind]
	for i, l := range listeners {
		if l.ID() != listenerID {
			continue
		}
		b.listeners[kind] = append(listeners[:i:i], listeners[i+1:]...)

		log.Printf("EventBus: Unsubscribed listener %s from %s", listenerID, kind)
		return
	}
}

// Publish hands a record to every listener of its kind in priority order.
// The first listener error stops propagation.
func (b *Bus) Publish(record *Record) error {
	b.mu.RLock()
	listeners := make([]RecordListener, len(b.listeners[record.Kind]))
	copy(listeners, b.listeners[record.Kind])
	b.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.HandleRecord(record); err != nil {
			return fmt.Errorf("listener %s failed on %s record %s: %w", listener.ID(), record.Kind, record.ID, err)
		}
	}

	return nil
}

// ListenerCount returns how many listeners handle a kind
func (b *Bus) ListenerCount(kind RecordKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[RecordKind][]RecordListener)
	log.Printf("EventBus: Cleared all listeners")
}

// sort orders listeners by ascending priority, callers hold the lock
func (b *Bus) sort(kind RecordKind) {
	sort.SliceStable(b.listeners[kind], func(i, j int) bool {
		return b.listeners[kind][i].Priority() < b.listeners[kind][j].Priority()
	})
}

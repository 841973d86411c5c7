package realtime

import (
	"sync"
)

// Record is a single observable value. Every committed Update publishes its
// event to the record's broadcaster after the lock is released.
type Record[T any, E any] struct {
	mu    sync.RWMutex
	value T
	hub   *Broadcaster[E]
}

// NewRecord creates a record holding initial.
func NewRecord[T any, E any](initial T) *Record[T, E] {
	return &Record[T, E]{value: initial, hub: NewBroadcaster[E]()}
}

// Read calls fn with the current value under a read lock. fn must not retain
// references into the value.
func (r *Record[T, E]) Read(fn func(v *T)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(&r.value)
}

// Update applies fn under the write lock. When fn returns nil the change is
// committed and event is published; an error means fn left the value as it
// was and nothing is published.
func (r *Record[T, E]) Update(event E, fn func(v *T) error) error {
	r.mu.Lock()
	err := fn(&r.value)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.hub.Publish(event)
	return nil
}

// Broadcaster returns the broadcaster notified after each committed update.
func (r *Record[T, E]) Broadcaster() *Broadcaster[E] {
	return r.hub
}

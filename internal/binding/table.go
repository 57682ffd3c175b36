// Package binding implements the listener binding model shared by the
// connection core (state-selective delivery) and the channel registry
// (event-name-selective delivery), per spec.md §2's component 7 and the
// capability-record design note in spec.md §9. Grounded on the teacher's
// subHandlers map[string]subscriptionHandler in internal/upstream/
// wsclient.go: a plain map guarded by one mutex, generalized here to a
// reusable generic type since this repo needs the same shape twice.
package binding

import (
	"sync"

	"github.com/google/uuid"
)

// entry pairs a bound listener with the opaque ref handed back from Add, so
// a caller that kept the ref can remove exactly that registration with
// RemoveRef instead of relying on listener value-equality.
type entry[L any] struct {
	ref      string
	listener L
}

// Table is a key-to-listener-set map safe for concurrent use. K is the
// filter type (connection.State or an event-name string); L is the
// listener type, constrained to comparable so Remove can match by value
// equality the way spec.md §4.1/§4.3's unbind(filter, listener) requires
// (every real listener implementation here is a pointer-backed type, so
// == never panics in practice).
type Table[K comparable, L comparable] struct {
	mu      sync.Mutex
	entries map[K][]entry[L]
}

// NewTable constructs an empty Table.
func NewTable[K comparable, L comparable]() *Table[K, L] {
	return &Table[K, L]{entries: make(map[K][]entry[L])}
}

// Add registers listener under key and returns an opaque ref identifying
// this specific registration (backed by google/uuid, per SPEC_FULL.md's
// domain-stack wiring).
func (t *Table[K, L]) Add(key K, listener L) string {
	ref := uuid.NewString()
	t.mu.Lock()
	t.entries[key] = append(t.entries[key], entry[L]{ref: ref, listener: listener})
	t.mu.Unlock()
	return ref
}

// Remove removes the first registration under key whose listener equals
// listener. Reports whether anything was removed.
func (t *Table[K, L]) Remove(key K, listener L) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	bound := t.entries[key]
	for i, e := range bound {
		if e.listener == listener {
			t.entries[key] = append(bound[:i], bound[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveRef removes the registration under key identified by ref, returned
// earlier from Add. Reports whether anything was removed.
func (t *Table[K, L]) RemoveRef(key K, ref string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	bound := t.entries[key]
	for i, e := range bound {
		if e.ref == ref {
			t.entries[key] = append(bound[:i], bound[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the listeners currently bound under key, safe
// to iterate after releasing the table's lock — the "collect under lock,
// invoke outside it" shape carried over from the teacher's DeliverEvent.
func (t *Table[K, L]) Snapshot(key K) []L {
	t.mu.Lock()
	defer t.mu.Unlock()
	bound := t.entries[key]
	out := make([]L, len(bound))
	for i, e := range bound {
		out[i] = e.listener
	}
	return out
}

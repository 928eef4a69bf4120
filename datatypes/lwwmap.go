package datatypes

import (
	"cmp"

	"library/cvrdt/communication"
	"library/cvrdt/utils"
)

// Entry is the value stored for one key together with the write that
// produced it.
type Entry[V any] struct {
	Value     V
	Timestamp uint64
	Writer    communication.ReplicaID
}

// LWWMap is a last-writer-wins map. Entries are totally ordered by
// (Timestamp, Writer, value order) and every key keeps the greatest entry
// it has been offered. Keeping the maximum of a total order is a join,
// so concurrent writes with equal timestamps resolve the same way on
// every replica regardless of merge order.
type LWWMap[K comparable, V any] struct {
	id         communication.ReplicaID
	clock      communication.Clock
	valueOrder func(a, b any) int
	entries    map[K]Entry[V]
}

// initialize map owned by replica id; local writes are stamped by a
// Lamport clock unless WithClock is given
func NewLWWMap[K comparable, V any](id communication.ReplicaID, opts ...Option) *LWWMap[K, V] {
	cfg := newConfig(opts)
	return &LWWMap[K, V]{
		id:         id,
		clock:      cfg.clock,
		valueOrder: cfg.valueOrder,
		entries:    map[K]Entry[V]{},
	}
}

func (m *LWWMap[K, V]) ID() communication.ReplicaID {
	return m.id
}

// compare orders entries by timestamp, then writer, then value
func (m *LWWMap[K, V]) compare(a, b Entry[V]) int {
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Writer, b.Writer); c != 0 {
		return c
	}
	return m.valueOrder(a.Value, b.Value)
}

func (m *LWWMap[K, V]) install(key K, e Entry[V]) bool {
	if cur, ok := m.entries[key]; ok && m.compare(e, cur) <= 0 {
		return false
	}
	m.entries[key] = e
	return true
}

// Set stamps the write with the map's clock. It reports whether the
// write became the stored value.
func (m *LWWMap[K, V]) Set(key K, value V) bool {
	return m.SetWithTimestamp(key, value, m.clock.Now())
}

// SetWithTimestamp installs value for key unless the stored entry is
// greater than or equal to (timestamp, local replica, value). The
// timestamp is witnessed by the clock so a later Set orders after it.
func (m *LWWMap[K, V]) SetWithTimestamp(key K, value V, timestamp uint64) bool {
	if w, ok := m.clock.(communication.Witnesser); ok {
		w.Witness(timestamp)
	}
	return m.install(key, Entry[V]{Value: value, Timestamp: timestamp, Writer: m.id})
}

func (m *LWWMap[K, V]) Get(key K) (V, bool) {
	e, ok := m.entries[key]
	return e.Value, ok
}

func (m *LWWMap[K, V]) Entry(key K) (Entry[V], bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Keys returns every key that has been set, in no particular order.
func (m *LWWMap[K, V]) Keys() []K {
	return utils.MapToKeys(m.entries)
}

func (m *LWWMap[K, V]) Len() int {
	return len(m.entries)
}

// Merge offers every entry of other to the local map. Timestamps seen
// in other are passed to the clock when it can witness them, so later
// local writes order after them.
func (m *LWWMap[K, V]) Merge(other *LWWMap[K, V]) {
	w, witness := m.clock.(communication.Witnesser)
	for key, e := range other.entries {
		m.install(key, e)
		if witness {
			w.Witness(e.Timestamp)
		}
	}
}

// Clone copies the entries. The clone shares the clock.
func (m *LWWMap[K, V]) Clone() *LWWMap[K, V] {
	c := &LWWMap[K, V]{
		id:         m.id,
		clock:      m.clock,
		valueOrder: m.valueOrder,
		entries:    make(map[K]Entry[V], len(m.entries)),
	}
	for key, e := range m.entries {
		c.entries[key] = e
	}
	return c
}

// Equal compares entries with the map's own order, so two values the
// order cannot tell apart count as equal.
func (m *LWWMap[K, V]) Equal(other *LWWMap[K, V]) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for key, e := range m.entries {
		theirs, ok := other.entries[key]
		if !ok || m.compare(e, theirs) != 0 {
			return false
		}
	}
	return true
}

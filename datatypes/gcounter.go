package datatypes

import (
	"library/cvrdt/communication"
)

// GCounter is a grow-only counter. Each replica only ever bumps its own
// entry; the value is the sum over all entries and merging takes the
// max per entry.
type GCounter struct {
	id    communication.ReplicaID
	state communication.VClock
}

// initialize counter owned by replica id
func NewGCounter(id communication.ReplicaID) *GCounter {
	return &GCounter{
		id:    id,
		state: communication.InitVClock(id),
	}
}

func (c *GCounter) ID() communication.ReplicaID {
	return c.id
}

func (c *GCounter) Increment() {
	c.state.Tick(c.id, 1)
}

// IncrementBy adds n to the local entry. The entry saturates at
// math.MaxUint64 instead of wrapping.
func (c *GCounter) IncrementBy(n uint64) {
	c.state.Tick(c.id, n)
}

func (c *GCounter) Value() uint64 {
	return c.state.Sum()
}

// Merge keeps, for every replica, the larger of the two counts.
func (c *GCounter) Merge(other *GCounter) {
	c.state.Merge(other.state)
}

// Counts returns a copy of the per-replica counts.
func (c *GCounter) Counts() map[communication.ReplicaID]uint64 {
	return c.state.Copy()
}

// Compare reports how other relates causally to c: Ancestor when c
// has already seen every increment in other.
func (c *GCounter) Compare(other *GCounter) communication.Condition {
	return c.state.Compare(other.state)
}

func (c *GCounter) Clone() *GCounter {
	return &GCounter{id: c.id, state: c.state.Copy()}
}

// Equal compares counts only. Two replicas that saw the same
// increments are equal even though their owners differ.
func (c *GCounter) Equal(other *GCounter) bool {
	return c.state.Equals(other.state)
}

func (c *GCounter) String() string {
	return c.state.String()
}

package communication

import (
	"bytes"
	"fmt"
	"math"

	"library/cvrdt/utils"
)

// Condition constants define how to compare a vector clock against another,
// and may be ORed together when being provided to the Compare method.
type Condition int

// Constants define comparison conditions between pairs of vector
// clocks
const (
	Equal Condition = 1 << iota
	Ancestor
	Descendant
	Concurrent
)

func (c Condition) String() string {
	switch c {
	case Equal:
		return "equal"
	case Ancestor:
		return "ancestor"
	case Descendant:
		return "descendant"
	case Concurrent:
		return "concurrent"
	}
	return fmt.Sprintf("condition(%d)", int(c))
}

// VClock maps a replica id to the number of events that replica has
// produced. A missing entry is the same as zero.
type VClock map[ReplicaID]uint64

// NewVClock returns a new vector clock
func NewVClock() VClock {
	return VClock{}
}

// InitVClock returns a clock with an explicit zero entry for every id.
func InitVClock(ids ...ReplicaID) VClock {
	vc := NewVClock()
	for _, i := range ids {
		vc[i] = 0
	}
	return vc
}

// FindTicks returns the clock value for a given id, if a value is not
// found false is returned
func (vc VClock) FindTicks(id ReplicaID) (uint64, bool) {
	ticks, ok := vc[id]
	return ticks, ok
}

// Copy returns a copy of the clock
func (vc VClock) Copy() VClock {
	cp := make(VClock, len(vc))
	for key, value := range vc {
		cp[key] = value
	}
	return cp
}

// Tick adds n to the entry of id, saturating at math.MaxUint64.
func (vc VClock) Tick(id ReplicaID, n uint64) {
	vc[id] = saturatingAdd(vc[id], n)
}

// Merge takes the max of all clock values in other and updates the
// values of the callee. other is only read.
func (vc VClock) Merge(other VClock) {
	for id, ticks := range other {
		cur, found := vc[id]
		if !found || cur < ticks {
			vc[id] = ticks
		}
	}
}

// Sum adds up every entry, saturating at math.MaxUint64.
func (vc VClock) Sum() uint64 {
	var total uint64
	for _, ticks := range vc {
		total = saturatingAdd(total, ticks)
	}
	return total
}

// Compare takes another clock and determines if it is Equal,
// Ancestor, Descendant, or Concurrent with the callee's clock.
// Ancestor means other happened before vc.
func (vc VClock) Compare(other VClock) Condition {
	otherIs := Equal

	step := func(mine, theirs uint64) bool {
		switch {
		case theirs > mine:
			if otherIs == Ancestor {
				otherIs = Concurrent
				return false
			}
			otherIs = Descendant
		case theirs < mine:
			if otherIs == Descendant {
				otherIs = Concurrent
				return false
			}
			otherIs = Ancestor
		}
		return true
	}

	for id, theirs := range other {
		if !step(vc[id], theirs) {
			return Concurrent
		}
	}
	for id, mine := range vc {
		if _, found := other[id]; found {
			continue
		}
		if !step(mine, 0) {
			return Concurrent
		}
	}

	return otherIs
}

// Equals reports whether both clocks hold the same counts. Explicit zero
// entries are treated like missing ones.
func (vc VClock) Equals(other VClock) bool {
	return vc.Compare(other) == Equal
}

// String returns a string encoding of a vector clock with ids in
// ascending order.
func (vc VClock) String() string {
	ids := utils.SortedKeys(vc)

	var buffer bytes.Buffer
	buffer.WriteString("{")
	for i, id := range ids {
		buffer.WriteString(fmt.Sprintf("%q:%d", string(id), vc[id]))
		if i+1 < len(ids) {
			buffer.WriteString(", ")
		}
	}
	buffer.WriteString("}")
	return buffer.String()
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

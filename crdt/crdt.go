// Package crdt defines the contract shared by the state-based data types
// of this module and helpers that check it.
//
// A state S is convergent when Merge is a join: associative, commutative
// and idempotent. Replicas that have merged the same set of states then
// hold Equal states, whatever the order or repetition of the merges.
package crdt

type Convergent[S any] interface {
	// Fold `other` into the receiver. `other` is never modified.
	Merge(other S)

	// Deep copy that shares no mutable state with the receiver.
	Clone() S

	// Whether both states are observably the same.
	Equal(other S) bool
}

// Join returns the merge of a and b as a fresh state. The state of
// neither input is modified, but anything Clone shares with a, such as
// an LWWMap clock, observes the merge.
func Join[S Convergent[S]](a, b S) S {
	out := a.Clone()
	out.Merge(b)
	return out
}

// Idempotent reports whether s ⊔ s = s.
func Idempotent[S Convergent[S]](s S) bool {
	return Join(s, s).Equal(s)
}

// Commutative reports whether a ⊔ b = b ⊔ a.
func Commutative[S Convergent[S]](a, b S) bool {
	return Join(a, b).Equal(Join(b, a))
}

// Associative reports whether (a ⊔ b) ⊔ c = a ⊔ (b ⊔ c).
func Associative[S Convergent[S]](a, b, c S) bool {
	return Join(Join(a, b), c).Equal(Join(a, Join(b, c)))
}

// Semilattice runs all three law checks on the given states.
func Semilattice[S Convergent[S]](a, b, c S) bool {
	return Idempotent(a) && Idempotent(b) && Idempotent(c) &&
		Commutative(a, b) && Commutative(b, c) && Commutative(a, c) &&
		Associative(a, b, c) && Associative(c, b, a)
}

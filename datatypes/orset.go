package datatypes

import (
	"library/cvrdt/communication"

	mapset "github.com/deckarep/golang-set/v2"
)

// ORSet is an observed-remove set. Every add is stamped with a fresh tag;
// a remove tombstones the tags it has seen for the element. An element
// is present while at least one of its tags is not tombstoned, so an add
// the remover never observed survives the remove.
//
// Tombstones are never discarded.
type ORSet[T comparable] struct {
	tags    communication.TagSource
	added   map[T]mapset.Set[communication.Tag]
	removed mapset.Set[communication.Tag]
	order   []T // first-seen order of keys in added
}

// initialize set; tags come from a UUID source unless WithTagSource is
// given
func NewORSet[T comparable](opts ...Option) *ORSet[T] {
	cfg := newConfig(opts)
	return &ORSet[T]{
		tags:    cfg.tags,
		added:   map[T]mapset.Set[communication.Tag]{},
		removed: mapset.NewThreadUnsafeSet[communication.Tag](),
	}
}

func (s *ORSet[T]) tagsOf(element T) mapset.Set[communication.Tag] {
	set, ok := s.added[element]
	if !ok {
		set = mapset.NewThreadUnsafeSet[communication.Tag]()
		s.added[element] = set
		s.order = append(s.order, element)
	}
	return set
}

// Add records element under a new tag and returns that tag.
func (s *ORSet[T]) Add(element T) communication.Tag {
	tag := s.tags.NewTag()
	s.tagsOf(element).Add(tag)
	return tag
}

// Remove tombstones every tag currently recorded for element. The tags
// stay in the add side so later merges still see them as removed.
func (s *ORSet[T]) Remove(element T) {
	set, ok := s.added[element]
	if !ok {
		return
	}
	set.Each(func(tag communication.Tag) bool {
		s.removed.Add(tag)
		return false
	})
}

func (s *ORSet[T]) live(set mapset.Set[communication.Tag]) bool {
	alive := false
	set.Each(func(tag communication.Tag) bool {
		alive = !s.removed.ContainsOne(tag)
		return alive
	})
	return alive
}

func (s *ORSet[T]) Contains(element T) bool {
	set, ok := s.added[element]
	return ok && s.live(set)
}

// Elements lists the current members. The order is first-seen order on
// this replica and carries no meaning.
func (s *ORSet[T]) Elements() []T {
	elements := make([]T, 0, len(s.order))
	for _, e := range s.order {
		if s.live(s.added[e]) {
			elements = append(elements, e)
		}
	}
	return elements
}

func (s *ORSet[T]) Len() int {
	n := 0
	for _, e := range s.order {
		if s.live(s.added[e]) {
			n++
		}
	}
	return n
}

// Tags returns the tags of element that have not been removed.
func (s *ORSet[T]) Tags(element T) []communication.Tag {
	set, ok := s.added[element]
	if !ok {
		return nil
	}
	return set.Difference(s.removed).ToSlice()
}

// Tombstones is the number of removed tags retained by the set.
func (s *ORSet[T]) Tombstones() int {
	return s.removed.Cardinality()
}

// Merge unions the add tags element by element and unions the
// tombstones. other is only read.
func (s *ORSet[T]) Merge(other *ORSet[T]) {
	for _, e := range other.order {
		s.tagsOf(e).Append(other.added[e].ToSlice()...)
	}
	s.removed.Append(other.removed.ToSlice()...)
}

// Clone copies the state. The clone shares the tag source.
func (s *ORSet[T]) Clone() *ORSet[T] {
	c := &ORSet[T]{
		tags:    s.tags,
		added:   make(map[T]mapset.Set[communication.Tag], len(s.added)),
		removed: s.removed.Clone(),
		order:   append([]T(nil), s.order...),
	}
	for e, set := range s.added {
		c.added[e] = set.Clone()
	}
	return c
}

// Equal compares tags and tombstones and ignores first-seen order.
func (s *ORSet[T]) Equal(other *ORSet[T]) bool {
	if len(s.added) != len(other.added) || !s.removed.Equal(other.removed) {
		return false
	}
	for e, set := range s.added {
		theirs, ok := other.added[e]
		if !ok || !set.Equal(theirs) {
			return false
		}
	}
	return true
}

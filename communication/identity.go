package communication

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ReplicaID names the replica that performs a mutation. Nothing is
// assumed about its contents beyond equality and ordering.
type ReplicaID string

// Tag stamps a single add event. Tags must be unique across all
// replicas and all time.
type Tag string

// TagSource mints tags. Implementations must never hand out the same
// tag twice, on any replica.
type TagSource interface {
	NewTag() Tag
}

// UUIDTags mints random version 4 UUIDs.
type UUIDTags struct{}

func (UUIDTags) NewTag() Tag {
	return Tag(uuid.NewString())
}

// SequenceTags mints "<replica>:<n>" tags. They are unique as long as
// no two replicas share an id and the sequence is never reset.
type SequenceTags struct {
	replica ReplicaID
	next    atomic.Uint64
}

func NewSequenceTags(id ReplicaID) *SequenceTags {
	return &SequenceTags{replica: id}
}

func (s *SequenceTags) NewTag() Tag {
	return Tag(fmt.Sprintf("%s:%d", s.replica, s.next.Add(1)))
}

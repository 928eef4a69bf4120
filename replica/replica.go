// Package replica guards a convergent state with a lock and moves whole
// states between replicas living in the same process.
//
// The data types in this module do no locking of their own. A Replica is
// the one mutex per replica state that callers need once a state is
// touched from more than one goroutine.
package replica

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"library/cvrdt/communication"
	"library/cvrdt/crdt"
)

var (
	ErrNoReplicas = errors.New("no replicas to converge")
	ErrDiverged   = errors.New("replicas did not converge")
)

const defaultMaxRounds = 16

type Replica[S crdt.Convergent[S]] struct {
	id        communication.ReplicaID
	lock      sync.RWMutex
	state     S
	logger    *slog.Logger
	maxRounds int
}

type Option func(*options)

type options struct {
	logger    *slog.Logger
	maxRounds int
}

// WithLogger sets where the replica reports updates, merges and syncs.
// Records are written at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMaxRounds bounds the number of sync rounds Converge may run when
// this replica leads it.
func WithMaxRounds(n int) Option {
	return func(o *options) { o.maxRounds = n }
}

// NewReplica wraps state, which from now on must only be reached through
// the replica.
func NewReplica[S crdt.Convergent[S]](id communication.ReplicaID, state S, opts ...Option) *Replica[S] {
	o := options{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRounds: defaultMaxRounds,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Replica[S]{
		id:        id,
		state:     state,
		logger:    o.logger.With("replica", string(id)),
		maxRounds: o.maxRounds,
	}
}

func (r *Replica[S]) GetID() communication.ReplicaID {
	return r.id
}

// Update runs a local mutation with exclusive access to the state.
func (r *Replica[S]) Update(fn func(S)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	fn(r.state)
	r.logger.Debug("updated")
}

// Read runs fn with shared access. fn must not modify the state.
func (r *Replica[S]) Read(fn func(S)) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	fn(r.state)
}

// Snapshot returns a copy of the state that is safe to hand to another
// replica.
func (r *Replica[S]) Snapshot() S {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state.Clone()
}

// Merge folds a remote snapshot into the local state.
func (r *Replica[S]) Merge(remote S) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.state.Merge(remote)
	r.logger.Debug("merged remote state")
}

// Sync exchanges snapshots with peer in both directions. At most one of
// the two locks is held at any time.
func (r *Replica[S]) Sync(peer *Replica[S]) {
	if peer == r {
		return
	}
	mine := r.Snapshot()
	theirs := peer.Snapshot()
	peer.Merge(mine)
	r.Merge(theirs)
	r.logger.Debug("synced", "peer", string(peer.id))
}

func (r *Replica[S]) equal(other *Replica[S]) bool {
	mine := r.Snapshot()
	theirs := other.Snapshot()
	return mine.Equal(theirs)
}

// Converge syncs r with every peer in rounds until all replicas hold
// equal states. It returns the number of rounds that were needed.
func (r *Replica[S]) Converge(peers ...*Replica[S]) (int, error) {
	if len(peers) == 0 {
		return 0, ErrNoReplicas
	}

	for round := 1; round <= r.maxRounds; round++ {
		for _, p := range peers {
			r.Sync(p)
		}

		converged := true
		for _, p := range peers {
			if !r.equal(p) {
				converged = false
				break
			}
		}
		if converged {
			r.logger.Debug("converged", "rounds", round, "peers", len(peers))
			return round, nil
		}
	}

	return r.maxRounds, fmt.Errorf("replica %s after %d rounds: %w", r.id, r.maxRounds, ErrDiverged)
}

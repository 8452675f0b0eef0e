// Package store keeps snapshots of uploaded source trees.
//
// A [Snapshot] pairs a tree with an id and an optional expiry. Backends:
//
//   - [MemoryStore]: in-process, for tests and single-instance servers
//   - [FileStore]: one JSON file per snapshot, for the CLI
//   - [MongoStore]: a MongoDB collection with a TTL index, for shared servers
//
// Expired snapshots are never returned; backends drop them lazily on access
// or through [Store.Cleanup].
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	slerrors "github.com/matzehuels/slocmap/pkg/errors"
	"github.com/matzehuels/slocmap/pkg/tree"
)

// DefaultTTL is how long uploaded snapshots are kept.
const DefaultTTL = 30 * 24 * time.Hour

// Snapshot is a stored tree.
type Snapshot struct {
	ID        string     `json:"id" bson:"_id"`
	Name      string     `json:"name" bson:"name"`
	Hash      string     `json:"hash" bson:"hash"`
	Tree      *tree.Node `json:"tree,omitempty" bson:"tree,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	// ExpiresAt is zero for snapshots that never expire.
	ExpiresAt time.Time `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
}

// New returns a snapshot with a fresh id. A ttl of zero never expires.
func New(name string, root *tree.Node, hash string, ttl time.Duration) *Snapshot {
	now := time.Now().UTC()
	s := &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Hash:      hash,
		Tree:      root,
		CreatedAt: now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// Expired reports whether s has passed its expiry at now.
func (s *Snapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// summary returns s without its tree.
func (s *Snapshot) summary() *Snapshot {
	c := *s
	c.Tree = nil
	return &c
}

// Store is the interface for snapshot backends.
type Store interface {
	// Put stores s, replacing any snapshot with the same id.
	Put(ctx context.Context, s *Snapshot) error

	// Get returns the snapshot with the given id. Missing and expired
	// snapshots yield an ErrCodeSnapshotNotFound error.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns all live snapshots newest first, without their trees.
	List(ctx context.Context) ([]*Snapshot, error)

	// Delete removes a snapshot. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired snapshots.
	Cleanup(ctx context.Context) error

	Close() error
}

// CheckID validates a snapshot id.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "invalid snapshot id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return slerrors.New(slerrors.ErrCodeSnapshotNotFound, "snapshot %s not found", id)
}

func validate(s *Snapshot) error {
	if s == nil || s.Tree == nil {
		return slerrors.New(slerrors.ErrCodeInvalidInput, "snapshot has no tree")
	}
	if err := CheckID(s.ID); err != nil {
		return err
	}
	return s.Tree.Validate()
}

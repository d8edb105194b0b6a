/*
Package iavl adapts a tendermint iavl tree to the store interfaces. Every
Commit produces a new tree version whose root hash commits to the full
content, which makes the store suitable for indexes that have to be attested.
*/
package iavl

import (
	"sync"

	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultCacheSize is the number of tree nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore manages a iavl committed state
type CommitStore struct {
	mu   sync.RWMutex
	tree *iavl.MutableTree
	last store.CommitID
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a store backed by given database and loads the
// latest version persisted in it.
func NewCommitStore(db dbm.DB, cacheSize int) (*CommitStore, error) {
	tree := iavl.NewMutableTree(db, cacheSize)
	if _, err := tree.Load(); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot load tree: %s", err)
	}
	last := store.CommitID{Version: tree.Version(), Hash: tree.Hash()}
	return &CommitStore{tree: tree, last: last}, nil
}

// NewMemCommitStore returns a CommitStore without disk backing.
func NewMemCommitStore() *CommitStore {
	s, err := NewCommitStore(dbm.NewMemDB(), DefaultCacheSize)
	if err != nil {
		// An empty memory database cannot fail to load.
		panic(err)
	}
	return s
}

// Get returns nil iff key doesn't exist. Reads the working state.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, val := s.tree.Get(key)
	return val, nil
}

// Has checks if a key exists in the working state.
func (s *CommitStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Has(key), nil
}

// Set adds a new value to the working state.
func (s *CommitStore) Set(key, value []byte) error {
	if value == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil value")
	}
	s.mu.Lock()
	s.tree.Set(key, value)
	s.mu.Unlock()
	return nil
}

// Delete removes from the tree
func (s *CommitStore) Delete(key []byte) error {
	s.mu.Lock()
	s.tree.Remove(key)
	s.mu.Unlock()
	return nil
}

// Iterate walks the working state keys with given prefix in ascending order.
func (s *CommitStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	type kv struct{ key, value []byte }
	var items []kv

	s.mu.RLock()
	s.tree.IterateRange(prefix, store.PrefixEnd(prefix), true, func(key, value []byte) bool {
		items = append(items, kv{key: key, value: value})
		return false
	})
	s.mu.RUnlock()

	for _, it := range items {
		if err := fn(it.key, it.value); err != nil {
			return err
		}
	}
	return nil
}

// Commit the next version to disk, and returns info
func (s *CommitStore) Commit() (store.CommitID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrInvalidState, "cannot save version: %s", err)
	}
	s.last = store.CommitID{Version: version, Hash: hash}
	return s.last, nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() store.CommitID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

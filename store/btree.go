package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore is a KVStore kept in a btree. There is no persistence here.
// It is safe for concurrent use.
type MemStore struct {
	mu sync.RWMutex
	bt *btree.BTree
}

var _ KVStore = (*MemStore)(nil)

// NewMemStore returns an empty btree backed store.
func NewMemStore() *MemStore {
	free := btree.NewFreeList(DefaultFreeListSize)
	return &MemStore{bt: btree.NewWithFreeList(2, free)}
}

// Get reads from the btree
func (s *MemStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := s.bt.Get(bkey{key})
	if res == nil {
		return nil, nil
	}
	return res.(setItem).value, nil
}

// Has checks the btree for the key
func (s *MemStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bt.Has(bkey{key}), nil
}

// Set writes to the BTree. The value is copied.
func (s *MemStore) Set(key, value []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)

	s.mu.Lock()
	s.bt.ReplaceOrInsert(setItem{bkey{k}, v})
	s.mu.Unlock()
	return nil
}

// Delete removes the key from the BTree
func (s *MemStore) Delete(key []byte) error {
	s.mu.Lock()
	s.bt.Delete(bkey{key})
	s.mu.Unlock()
	return nil
}

// Iterate walks all keys with given prefix in ascending order.
func (s *MemStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	// Collect first so that fn may write to the store.
	var items []setItem
	s.mu.RLock()
	s.bt.AscendGreaterOrEqual(bkey{prefix}, func(i btree.Item) bool {
		it := i.(setItem)
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		items = append(items, it)
		return true
	})
	s.mu.RUnlock()

	for _, it := range items {
		if err := fn(it.key, it.value); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of keys held.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bt.Len()
}

// we enforce all data in our btree implements keyer so we
// can compare nicely
type keyer interface {
	Key() []byte
}

// bkey implements keyer and btree.Item
// and may be used for queries or embedded in data to store
type bkey struct {
	key []byte
}

var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

// Less returns true iff second argument is greater than first
//
// panics if the item to compare doesn't implement keyer.
func (k bkey) Less(item btree.Item) bool {
	return bytes.Compare(k.key, item.(keyer).Key()) < 0
}

type setItem struct {
	bkey
	value []byte
}

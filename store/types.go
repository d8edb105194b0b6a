/*
Package store provides the key value storage the vault and the notary
build on.

MemStore keeps everything in an in memory btree. The iavl subpackage
provides a versioned, merkleized store whose root hash can be attested to.
*/
package store

// ReadOnlyKVStore is a simple interface to query data.
type ReadOnlyKVStore interface {
	// Get returns nil iff key doesn't exist. Panics on nil key.
	Get(key []byte) ([]byte, error)

	// Has checks if a key exists. Panics on nil key.
	Has(key []byte) (bool, error)

	// Iterate calls fn for every key with the given prefix, in ascending
	// key order. Iteration stops on the first error returned by fn and
	// that error is returned.
	Iterate(prefix []byte, fn func(key, value []byte) error) error
}

// KVStore is a simple interface to get/set data
//
// For simplicity, we require all backing stores to implement this
// interface. They *may* implement other methods as well, but
// at least these are required.
type KVStore interface {
	ReadOnlyKVStore

	// Set sets the key. Panics on nil key.
	Set(key, value []byte) error

	// Delete deletes the key. Panics on nil key.
	Delete(key []byte) error
}

// CommitID contains the tree version number and its merkle root.
type CommitID struct {
	Version int64
	Hash    []byte
}

// CommitKVStore is a root store that can make atomic commits to disk.
type CommitKVStore interface {
	KVStore

	// Commit the next version to disk, and returns info
	Commit() (CommitID, error)

	// LatestVersion returns info on the latest version saved to disk
	LatestVersion() CommitID
}

// PrefixEnd returns the smallest key that is greater than every key with
// given prefix, or nil if no such key exists (prefix is all 0xFF).
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

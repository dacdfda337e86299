// Package kvstore provides the small key-value persistence interface used by
// the operation history ledger, with file-backed and in-memory
// implementations.
package kvstore

// Store is minimal get/set/remove persistence for opaque values. Keys are
// flat strings; values are byte blobs owned by the caller.
type Store interface {
	// Get returns the value for key and whether the key exists.
	Get(key string) ([]byte, bool, error)

	// Set writes the value for key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key string) error
}

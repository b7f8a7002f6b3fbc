package phrasedict

// KVStore is the capability a backing-store provider must offer the
// dictionary. The bulk phrase data behind it is read-only; user edits
// live in the Dictionary overlay, never in the store.
type KVStore interface {
	// Find returns all stored values whose key equals key exactly.
	// The order among values of a single key is unconstrained; each
	// value is decoded independently.
	Find(key []byte) ValueIterator

	// Iter returns all stored pairs in ascending (key bytes, decoded
	// phrase text) order. The merge in Dictionary.Entries relies on
	// this ordering. The reserved InfoKey may be present and is
	// filtered out by the dictionary layer.
	Iter() EntryIterator
}

// ValueIterator is a cursor over raw store values. Next must be called
// before the first Value. Values are temporary buffers and must be
// copied if used beyond the next cursor move.
type ValueIterator interface {
	Next() bool
	Value() []byte
	Err() error
}

// EntryIterator is a cursor over raw (key, value) store pairs. Next must
// be called before the first Key/Value. Both are temporary buffers and
// must be copied if used beyond the next cursor move.
type EntryIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
}

// --------------------------------------------------------------------

// EmptyStore is the null provider, used for purely in-memory
// dictionaries. Both iterators are immediately exhausted.
type EmptyStore struct{}

// Find implements KVStore.
func (EmptyStore) Find(_ []byte) ValueIterator { return emptyIterator{} }

// Iter implements KVStore.
func (EmptyStore) Iter() EntryIterator { return emptyIterator{} }

type emptyIterator struct{}

func (emptyIterator) Next() bool    { return false }
func (emptyIterator) Key() []byte   { return nil }
func (emptyIterator) Value() []byte { return nil }
func (emptyIterator) Err() error    { return nil }

package store

import (
	"bytes"

	"github.com/google/btree"

	"github.com/keyless-one/strongbox"
)

const (
	// DefaultFreeListSize is the size we hold for free nodes in btree.
	DefaultFreeListSize = btree.DefaultFreeListSize
)

// MemStore returns a simple in-memory implementation. There is no
// persistence here; a commit store fronting a durable backend would plug in
// through the same interfaces.
func MemStore() strongbox.CacheableKVStore {
	return NewBTreeCacheWrap(EmptyKVStore{}, nil)
}

// BTreeCacheWrap places a btree cache over a KVStore.
type BTreeCacheWrap struct {
	bt   *btree.BTree
	free *btree.FreeList
	back strongbox.KVStore
}

var _ strongbox.KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this kv store.
//
// free may be nil, but set to an existing list to reuse it for memory
// savings.
func NewBTreeCacheWrap(kv strongbox.KVStore, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:   btree.NewWithFreeList(2, free),
		free: free,
		back: kv,
	}
}

// CacheWrap layers another BTree on top of this one. Don't change horses in
// mid-stream....
func (b BTreeCacheWrap) CacheWrap() strongbox.KVCacheWrap {
	return NewBTreeCacheWrap(b, b.free)
}

// Write syncs with the underlying store. And then cleans up.
func (b BTreeCacheWrap) Write() (err error) {
	b.bt.Ascend(func(i btree.Item) bool {
		op := i.(op)
		if op.delete {
			err = b.back.Delete(op.key)
		} else {
			err = b.back.Set(op.key, op.value)
		}
		return err == nil
	})
	b.Discard()
	return err
}

// Discard invalidates this CacheWrap and releases all data.
func (b BTreeCacheWrap) Discard() {
	// clean up the btree -> freelist
	for stop := false; !stop; {
		rem := b.bt.DeleteMin()
		stop = (rem == nil)
	}
}

// Set writes to the BTree overlay.
func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.bt.ReplaceOrInsert(setOp(key, value))
	return nil
}

// Delete marks the key as removed in the overlay.
func (b BTreeCacheWrap) Delete(key []byte) error {
	b.bt.ReplaceOrInsert(delOp(key))
	return nil
}

// Get reads from the overlay if the key was touched, otherwise from the
// backing store.
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if item := b.bt.Get(lookup(key)); item != nil {
		op := item.(op)
		if op.delete {
			return nil, nil
		}
		return op.value, nil
	}
	return b.back.Get(key)
}

// Has reads from the overlay if the key was touched, otherwise from the
// backing store.
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if item := b.bt.Get(lookup(key)); item != nil {
		return !item.(op).delete, nil
	}
	return b.back.Has(key)
}

// op is a single overlay entry. A delete shadows any value the backing
// store may hold for the key.
type op struct {
	key    []byte
	value  []byte
	delete bool
}

var _ btree.Item = op{}

func (o op) Less(than btree.Item) bool {
	return bytes.Compare(o.key, than.(op).key) < 0
}

func setOp(key, value []byte) op {
	return op{key: key, value: value}
}

func delOp(key []byte) op {
	return op{key: key, delete: true}
}

func lookup(key []byte) op {
	return op{key: key}
}

// EmptyKVStore never holds any data and silently swallows all writes. It
// serves as the bottom of a MemStore stack, where the top level cache-wrap
// is the actual storage.
type EmptyKVStore struct{}

var _ strongbox.KVStore = EmptyKVStore{}

func (EmptyKVStore) Get(key []byte) ([]byte, error) { return nil, nil }

func (EmptyKVStore) Has(key []byte) (bool, error) { return false, nil }

func (EmptyKVStore) Set(key, value []byte) error { return nil }

func (EmptyKVStore) Delete(key []byte) error { return nil }

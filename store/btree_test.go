package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreBasics(t *testing.T) {
	db := MemStore()

	v, err := db.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	has, err := db.Has([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.Set([]byte("hello"), []byte("world")))
	v, err = db.Get([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), v)

	has, err = db.Has([]byte("hello"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("hello")))
	has, err = db.Has([]byte("hello"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCacheWrapWrite(t *testing.T) {
	db := MemStore()
	require.NoError(t, db.Set([]byte("a"), []byte("1")))

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Delete([]byte("a")))

	// The cache observes its own writes.
	v, err := cache.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	has, err := cache.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)

	// The backing store does not, until Write.
	v, err = db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, v)
	has, err = db.Has([]byte("a"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, cache.Write())

	v, err = db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	has, err = db.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCacheWrapDiscard(t *testing.T) {
	db := MemStore()
	require.NoError(t, db.Set([]byte("a"), []byte("1")))

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Delete([]byte("a")))
	cache.Discard()

	// Nothing from the cache leaked into the backing store.
	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	has, err := db.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCacheWrapNested(t *testing.T) {
	db := MemStore()

	outer := db.CacheWrap()
	require.NoError(t, outer.Set([]byte("a"), []byte("1")))

	inner := outer.CacheWrap()
	require.NoError(t, inner.Set([]byte("b"), []byte("2")))

	// The inner cache sees through to the outer one.
	v, err := inner.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	// Inner writes commit into the outer cache, not the store.
	require.NoError(t, inner.Write())
	v, err = outer.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	v, err = db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, outer.Write())
	v, err = db.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestDeleteShadowsBackingValue(t *testing.T) {
	db := MemStore()
	require.NoError(t, db.Set([]byte("k"), []byte("v")))

	cache := db.CacheWrap()
	require.NoError(t, cache.Delete([]byte("k")))

	v, err := cache.Get([]byte("k"))
	require.NoError(t, err)
	assert.Nil(t, v)

	// Setting again in the same cache replaces the delete.
	require.NoError(t, cache.Set([]byte("k"), []byte("v2")))
	v, err = cache.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

package orm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/store"
)

type record struct {
	Value   string
	Invalid bool
}

var _ Model = (*record)(nil)

func (r *record) Marshal() ([]byte, error) { return []byte(r.Value), nil }
func (r *record) Unmarshal(b []byte) error { r.Value = string(b); return nil }
func (r *record) Validate() error {
	if r.Invalid {
		return errors.Wrap(errors.ErrModel, "declared invalid")
	}
	return nil
}

func TestNewModelBucketName(t *testing.T) {
	assert.NotPanics(t, func() { NewModelBucket("wallet") })
	assert.Panics(t, func() { NewModelBucket("UPPER") })
	assert.Panics(t, func() { NewModelBucket("ab") })
	assert.Panics(t, func() { NewModelBucket("with:sep") })
}

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("record")

	require.NoError(t, b.Put(db, []byte("k1"), &record{Value: "v1"}))

	var got record
	require.NoError(t, b.One(db, []byte("k1"), &got))
	assert.Equal(t, "v1", got.Value)

	// Loading is always into a fresh copy, no state aliasing.
	got.Value = "changed"
	var again record
	require.NoError(t, b.One(db, []byte("k1"), &again))
	assert.Equal(t, "v1", again.Value)
}

func TestModelBucketOneNotFound(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("record")

	var got record
	err := b.One(db, []byte("unknown"), &got)
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestModelBucketPutValidates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("record")

	err := b.Put(db, []byte("k"), &record{Invalid: true})
	assert.True(t, errors.ErrModel.Is(err))

	err = b.Put(db, nil, &record{Value: "v"})
	assert.True(t, errors.ErrEmpty.Is(err))
}

func TestModelBucketHasDelete(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("record")

	require.NoError(t, b.Put(db, []byte("k"), &record{Value: "v"}))
	has, err := b.Has(db, []byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, b.Delete(db, []byte("k")))
	has, err = b.Has(db, []byte("k"))
	require.NoError(t, err)
	assert.False(t, has)

	err = b.Delete(db, []byte("k"))
	assert.True(t, errors.ErrNotFound.Is(err))
}

func TestModelBucketsAreIsolated(t *testing.T) {
	db := store.MemStore()
	a := NewModelBucket("first")
	b := NewModelBucket("second")

	require.NoError(t, a.Put(db, []byte("k"), &record{Value: "from a"}))

	var got record
	err := b.One(db, []byte("k"), &got)
	assert.True(t, errors.ErrNotFound.Is(err))
}

package orm

import (
	"regexp"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
)

// Model is implemented by any entity that can be stored using a ModelBucket.
type Model interface {
	strongbox.Persistent

	// Validate returns an error if the model is not in a valid state to
	// save to the db (eg. field missing, out of range, ...).
	Validate() error
}

// isBucketName limits the characters a bucket namespace may contain. The
// separator byte must never appear in a name or key prefixes could collide.
var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// ModelBucket stores a single model type under a namespaced key prefix.
// Each record is stored in its serialized form; reads always deserialize a
// fresh copy so that callers never alias stored state.
type ModelBucket struct {
	prefix []byte
}

// NewModelBucket returns a bucket using the given namespace. It panics on an
// invalid name as this must be caught during the setup phase.
func NewModelBucket(name string) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	return ModelBucket{
		prefix: append([]byte(name), ':'),
	}
}

// DBKey returns the full storage key for an entity of this bucket.
func (b ModelBucket) DBKey(key []byte) []byte {
	return append(b.prefix, key...)
}

// One queries the database for a single model instance. Lookup is done by
// the primary key. The result is loaded into the given destination model.
// This method returns ErrNotFound if the entity does not exist in the
// database.
func (b ModelBucket) One(db strongbox.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(b.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "bucket lookup")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot unmarshal into %T", dest)
	}
	return nil
}

// Has returns whether an entity with given primary key exists, without
// deserializing it.
func (b ModelBucket) Has(db strongbox.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Put saves given model in the database under the given primary key. The
// model is validated before being written.
func (b ModelBucket) Put(db strongbox.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrapf(err, "cannot marshal %T", m)
	}
	if err := db.Set(b.DBKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

// Delete removes an entity with given primary key from the database. It
// returns ErrNotFound if an entity with given key does not exist.
func (b ModelBucket) Delete(db strongbox.KVStore, key []byte) error {
	dbkey := b.DBKey(key)
	ok, err := db.Has(dbkey)
	if err != nil {
		return errors.Wrap(err, "bucket lookup")
	}
	if !ok {
		return errors.Wrap(errors.ErrNotFound, "no entity under this key")
	}
	return db.Delete(dbkey)
}

package migration

import (
	"fmt"
	"reflect"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
)

// Migratable is implemented by every payload that can be schema versioned.
type Migratable interface {
	// GetMetadata returns the metadata header attached to the payload. It
	// must never return nil for a persisted entity.
	GetMetadata() *strongbox.Metadata
}

// Migrator upgrades a payload in place from the previous schema version to
// the one it was registered for.
type Migrator func(Migratable) error

// NoModification is a migration function that does nothing. Use it to
// declare a schema version that did not change the payload interpretation.
func NoModification(Migratable) error {
	return nil
}

type register struct {
	migrations map[payloadVersion]Migrator
	heads      map[reflect.Type]uint32
}

func newRegister() *register {
	return &register{
		migrations: make(map[payloadVersion]Migrator),
		heads:      make(map[reflect.Type]uint32),
	}
}

// payloadVersion references a payload type at a given schema version.
type payloadVersion struct {
	payload reflect.Type
	version uint32
}

// reg is the global migrations register. Use MustRegister to update it.
var reg = newRegister()

// MustRegister registers a migration function for a payload type at a given
// schema version. Migrations must be registered starting with version one,
// without gaps. This function panics on a registration conflict as this is
// a programmer error that must be caught during startup.
func MustRegister(version uint32, payload Migratable, fn Migrator) {
	reg.mustRegister(version, payload, fn)
}

func (r *register) mustRegister(version uint32, payload Migratable, fn Migrator) {
	if version < 1 {
		panic("schema version must be greater than zero")
	}
	tp := reflect.TypeOf(payload)
	if r.heads[tp]+1 != version {
		panic(fmt.Sprintf("schema version %d for %T registered out of order", version, payload))
	}
	pv := payloadVersion{payload: tp, version: version}
	if _, ok := r.migrations[pv]; ok {
		panic(fmt.Sprintf("migration for %T version %d already registered", payload, version))
	}
	r.migrations[pv] = fn
	r.heads[tp] = version
}

// Apply upgrades the payload in place to the newest registered schema
// version. It fails if the payload type was never registered, if the stored
// version is above the newest known one, or if any migration function
// fails.
func Apply(payload Migratable) error {
	return reg.apply(payload)
}

func (r *register) apply(payload Migratable) error {
	tp := reflect.TypeOf(payload)
	head, ok := r.heads[tp]
	if !ok {
		return errors.Wrapf(errors.ErrSchema, "%T not registered", payload)
	}
	meta := payload.GetMetadata()
	if meta == nil {
		return errors.Wrap(errors.ErrMetadata, "no metadata")
	}
	if meta.Schema > head {
		return errors.Wrapf(errors.ErrSchema, "version %d is higher than the newest known %d", meta.Schema, head)
	}
	for v := meta.Schema + 1; v <= head; v++ {
		fn := r.migrations[payloadVersion{payload: tp, version: v}]
		if err := fn(payload); err != nil {
			return errors.Wrapf(err, "migration to version %d", v)
		}
		meta.Schema = v
	}
	return nil
}

// CurrentSchema returns the newest registered schema version for the given
// payload type.
func CurrentSchema(payload Migratable) (uint32, error) {
	head, ok := reg.heads[reflect.TypeOf(payload)]
	if !ok {
		return 0, errors.Wrapf(errors.ErrSchema, "%T not registered", payload)
	}
	return head, nil
}

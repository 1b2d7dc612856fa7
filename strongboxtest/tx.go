package strongboxtest

import (
	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
)

// Tx is a mock implementing strongbox.Tx interface.
type Tx struct {
	// Msg is the message instance this transaction is carrying.
	Msg strongbox.Msg
	// Err if set is returned by GetMsg.
	Err error
}

var _ strongbox.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (strongbox.Msg, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	return tx.Msg, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	return tx.Msg.Marshal()
}

func (tx *Tx) Unmarshal([]byte) error {
	return errors.Wrap(errors.ErrHuman, "cannot unmarshal into a mock")
}

// Msg is a mock implementing strongbox.Msg interface.
type Msg struct {
	// RoutePath is returned by Path.
	RoutePath string
	// Serialized is returned by Marshal.
	Serialized []byte
	// Err if set is returned by both Marshal and Validate.
	Err error
}

var _ strongbox.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Marshal() ([]byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Serialized, nil
}

func (m *Msg) Unmarshal(raw []byte) error {
	if m.Err != nil {
		return m.Err
	}
	m.Serialized = raw
	return nil
}

func (m *Msg) Validate() error {
	return m.Err
}

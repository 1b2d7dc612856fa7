package vault

import (
	"go.uber.org/zap"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
)

// Invoker performs a single delegated sub-instruction under an authority
// already asserted on the context.
type Invoker interface {
	Invoke(ctx strongbox.Context, db strongbox.KVStore, instr Instruction) (*strongbox.DeliverResult, error)
}

// Delegate invokes sub-instructions by routing them through a handler,
// usually the application router. The target module receives the payload
// verbatim and interprets it on its own; the only authentication it sees
// are the conditions the execute handler placed on the context.
type Delegate struct {
	h strongbox.Handler
}

var _ Invoker = Delegate{}

// NewDelegate returns a Delegate dispatching through the given handler.
func NewDelegate(h strongbox.Handler) Delegate {
	return Delegate{h: h}
}

// Invoke routes one instruction. The caller is responsible for running all
// instructions of a proposal inside a single cache-wrap so that a failure
// leaves no partial state behind.
func (d Delegate) Invoke(ctx strongbox.Context, db strongbox.KVStore, instr Instruction) (*strongbox.DeliverResult, error) {
	strongbox.GetLogger(ctx).Debug("delegated invocation",
		zap.String("target", instr.Target),
		zap.Int("accounts", len(instr.Accounts)),
	)
	tx := &instructionTx{msg: &instructionMsg{
		path:    instr.Target,
		payload: instr.Payload,
	}}
	res, err := d.h.Deliver(ctx, db, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "target %q", instr.Target)
	}
	return res, nil
}

// instructionMsg carries an opaque payload to the target module. The
// target is responsible for deserializing and validating the payload; from
// the delegate's point of view it is a byte string.
type instructionMsg struct {
	path    string
	payload []byte
}

var _ strongbox.Msg = (*instructionMsg)(nil)

func (m *instructionMsg) Path() string {
	return m.path
}

func (m *instructionMsg) Validate() error {
	if m.path == "" {
		return errors.Wrap(ErrInvalidInstruction, "no target module")
	}
	return nil
}

func (m *instructionMsg) Marshal() ([]byte, error) {
	return m.payload, nil
}

func (m *instructionMsg) Unmarshal(raw []byte) error {
	m.payload = raw
	return nil
}

type instructionTx struct {
	msg strongbox.Msg
}

var _ strongbox.Tx = (*instructionTx)(nil)

func (tx *instructionTx) GetMsg() (strongbox.Msg, error) {
	return tx.msg, nil
}

func (tx *instructionTx) Marshal() ([]byte, error) {
	return tx.msg.Marshal()
}

func (tx *instructionTx) Unmarshal(raw []byte) error {
	return tx.msg.Unmarshal(raw)
}

package vault

import (
	"github.com/keyless-one/strongbox/errors"
)

// Error codes 1100-1199 are reserved for the vault extension.
var (
	// ErrInvalidConfiguration is returned when a wallet's owner set,
	// threshold or capacity do not fit together. The caller must retry
	// with corrected input.
	ErrInvalidConfiguration = errors.Register(1100, "invalid wallet configuration")

	// ErrInvalidOwner is returned when the acting identity is not part
	// of the wallet's current owner set.
	ErrInvalidOwner = errors.Register(1101, "not a wallet owner")

	// ErrInvalidSchedule is returned when a requested execution time
	// violates the wallet's minimum delay.
	ErrInvalidSchedule = errors.Register(1102, "schedule violates the minimum delay")

	// ErrStaleProposal is returned when the wallet's owner set changed
	// since the proposal was created. Terminal for that proposal;
	// re-propose under the new owner set.
	ErrStaleProposal = errors.Register(1103, "proposal created under a different owner set")

	// ErrNotEnoughSigners is returned when the approval count is below
	// the wallet threshold. Retryable: more approvals may still arrive.
	ErrNotEnoughSigners = errors.Register(1104, "not enough approvals")

	// ErrNotReady is returned when the time-lock has not passed yet.
	// Retryable: simply wait.
	ErrNotReady = errors.Register(1105, "transaction not ready")

	// ErrAlreadyExecuted is returned on any attempt to mutate or execute
	// a proposal that already ran. Terminal, informational.
	ErrAlreadyExecuted = errors.Register(1106, "already executed")

	// ErrInvalidInstruction is returned when a sub-instruction is
	// malformed or requires an authority the wallet cannot assert.
	ErrInvalidInstruction = errors.Register(1107, "invalid instruction")
)

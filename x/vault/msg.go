package vault

import (
	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/migration"
)

func init() {
	migration.MustRegister(1, &CreateWalletMsg{}, migration.NoModification)
	migration.MustRegister(1, &CreateProposalMsg{}, migration.NoModification)
	migration.MustRegister(1, &ApproveMsg{}, migration.NoModification)
	migration.MustRegister(1, &UnapproveMsg{}, migration.NoModification)
	migration.MustRegister(1, &ExecuteMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateWalletMsg{}, migration.NoModification)
}

const (
	pathCreateWallet   = "vault/create"
	pathCreateProposal = "vault/propose"
	pathApprove        = "vault/approve"
	pathUnapprove      = "vault/unapprove"
	pathExecute        = "vault/execute"
	pathUpdateWallet   = "vault/update"
)

var _ strongbox.Msg = (*CreateWalletMsg)(nil)

func (CreateWalletMsg) Path() string {
	return pathCreateWallet
}

func (msg *CreateWalletMsg) GetMetadata() *strongbox.Metadata {
	return msg.Metadata
}

func (msg *CreateWalletMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	switch n := len(msg.Seed); {
	case n == 0:
		return errors.Wrap(ErrInvalidConfiguration, "no seed")
	case n > maxSeedLength:
		return errors.Wrapf(ErrInvalidConfiguration, "seed longer than %d bytes", maxSeedLength)
	}
	maxOwners := msg.MaxOwners
	if maxOwners == 0 {
		maxOwners = maxOwnersAllowed
	}
	if maxOwners > maxOwnersAllowed {
		return errors.Wrapf(ErrInvalidConfiguration, "max owners above the %d limit", maxOwnersAllowed)
	}
	if err := validateOwners(msg.Owners, msg.Threshold, maxOwners); err != nil {
		return err
	}
	if err := msg.MinimumDelay.Validate(); err != nil {
		return errors.Wrap(err, "minimum delay")
	}
	return nil
}

var _ strongbox.Msg = (*CreateProposalMsg)(nil)

func (CreateProposalMsg) Path() string {
	return pathCreateProposal
}

func (msg *CreateProposalMsg) GetMetadata() *strongbox.Metadata {
	return msg.Metadata
}

func (msg *CreateProposalMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := msg.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	switch n := len(msg.Instructions); {
	case n == 0:
		return errors.Wrap(ErrInvalidInstruction, "no instructions")
	case n > maxInstructionsAllowed:
		return errors.Wrapf(ErrInvalidInstruction, "more than %d instructions", maxInstructionsAllowed)
	}
	for i, instr := range msg.Instructions {
		if err := instr.Validate(); err != nil {
			return errors.Wrapf(err, "instruction #%d", i)
		}
	}
	if err := msg.Eta.Validate(); err != nil {
		return errors.Wrap(err, "eta")
	}
	return nil
}

var _ strongbox.Msg = (*ApproveMsg)(nil)

func (ApproveMsg) Path() string {
	return pathApprove
}

func (msg *ApproveMsg) GetMetadata() *strongbox.Metadata {
	return msg.Metadata
}

func (msg *ApproveMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return errors.Wrap(msg.Proposal.Validate(), "proposal")
}

var _ strongbox.Msg = (*UnapproveMsg)(nil)

func (UnapproveMsg) Path() string {
	return pathUnapprove
}

func (msg *UnapproveMsg) GetMetadata() *strongbox.Metadata {
	return msg.Metadata
}

func (msg *UnapproveMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return errors.Wrap(msg.Proposal.Validate(), "proposal")
}

var _ strongbox.Msg = (*ExecuteMsg)(nil)

func (ExecuteMsg) Path() string {
	return pathExecute
}

func (msg *ExecuteMsg) GetMetadata() *strongbox.Metadata {
	return msg.Metadata
}

func (msg *ExecuteMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return errors.Wrap(msg.Proposal.Validate(), "proposal")
}

var _ strongbox.Msg = (*UpdateWalletMsg)(nil)

func (UpdateWalletMsg) Path() string {
	return pathUpdateWallet
}

func (msg *UpdateWalletMsg) GetMetadata() *strongbox.Metadata {
	return msg.Metadata
}

func (msg *UpdateWalletMsg) Validate() error {
	if err := msg.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := msg.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	// Capacity is checked against the wallet record by the handler; here
	// only the hard limit can be enforced.
	if err := validateOwners(msg.Owners, msg.Threshold, maxOwnersAllowed); err != nil {
		return err
	}
	if err := msg.MinimumDelay.Validate(); err != nil {
		return errors.Wrap(err, "minimum delay")
	}
	return nil
}

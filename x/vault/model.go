package vault

import (
	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/migration"
	"github.com/keyless-one/strongbox/orm"
)

func init() {
	migration.MustRegister(1, &Wallet{}, migration.NoModification)
	migration.MustRegister(1, &Proposal{}, migration.NoModification)
}

const (
	// maxOwnersAllowed bounds the owner capacity any wallet may declare.
	// To avoid burning CPU during approval counting this must stay
	// small.
	maxOwnersAllowed = 32

	// maxInstructionsAllowed bounds the number of sub-instructions a
	// single proposal can carry.
	maxInstructionsAllowed = 16

	// maxSeedLength bounds the caller supplied base identity a wallet
	// address is derived from.
	maxSeedLength = 64
)

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	switch n := len(w.Seed); {
	case n == 0:
		return errors.Wrap(ErrInvalidConfiguration, "no seed")
	case n > maxSeedLength:
		return errors.Wrapf(ErrInvalidConfiguration, "seed longer than %d bytes", maxSeedLength)
	}
	if w.MaxOwners < 1 || w.MaxOwners > maxOwnersAllowed {
		return errors.Wrapf(ErrInvalidConfiguration, "max owners must be between 1 and %d", maxOwnersAllowed)
	}
	if err := validateOwners(w.Owners, w.Threshold, w.MaxOwners); err != nil {
		return err
	}
	if err := w.MinimumDelay.Validate(); err != nil {
		return errors.Wrap(err, "minimum delay")
	}
	return nil
}

// validateOwners ensures the owner set and threshold configuration is
// usable. The same rules apply at wallet creation and on every governance
// update, so instead of copying the code it is extracted into this
// function.
func validateOwners(owners []strongbox.Address, threshold uint32, maxOwners uint32) error {
	switch n := len(owners); {
	case n == 0:
		return errors.Wrap(ErrInvalidConfiguration, "no owners")
	case uint32(n) > maxOwners:
		return errors.Wrapf(ErrInvalidConfiguration, "more than %d owners", maxOwners)
	}
	index := make(map[string]struct{}, len(owners))
	for _, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner %s", o)
		}
		key := string(o)
		if _, ok := index[key]; ok {
			return errors.Wrapf(ErrInvalidConfiguration, "duplicate owner %s", o)
		}
		index[key] = struct{}{}
	}
	if threshold < 1 || int(threshold) > len(owners) {
		return errors.Wrapf(ErrInvalidConfiguration, "threshold %d outside of 1..%d", threshold, len(owners))
	}
	return nil
}

// OwnerIndex returns the position of the given address in the owner list,
// or -1 when the address is not an owner.
func (w *Wallet) OwnerIndex(addr strongbox.Address) int {
	for i, o := range w.Owners {
		if o.Equals(addr) {
			return i
		}
	}
	return -1
}

// Condition reproduces the wallet's keyless condition from the stored seed
// material. Only the engine can do this, which is what makes the condition
// a capability rather than a signature.
func (w *Wallet) Condition() (strongbox.Condition, error) {
	return WalletConditionAt(w.Seed, w.Bump)
}

// Address returns the derived address this wallet lives at.
func (w *Wallet) Address() (strongbox.Address, error) {
	c, err := w.Condition()
	if err != nil {
		return nil, errors.Wrap(err, "wallet condition")
	}
	return c.Address(), nil
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := p.Wallet.Validate(); err != nil {
		return errors.Wrap(err, "wallet")
	}
	if err := p.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	switch n := len(p.Instructions); {
	case n == 0:
		return errors.Wrap(ErrInvalidInstruction, "no instructions")
	case n > maxInstructionsAllowed:
		return errors.Wrapf(ErrInvalidInstruction, "more than %d instructions", maxInstructionsAllowed)
	}
	for i, instr := range p.Instructions {
		if err := instr.Validate(); err != nil {
			return errors.Wrapf(err, "instruction #%d", i)
		}
	}
	if len(p.Approvals) == 0 {
		return errors.Wrap(errors.ErrModel, "no approval slots")
	}
	if err := p.CreatedAt.Validate(); err != nil {
		return errors.Wrap(err, "created at")
	}
	if p.CreatedAt.IsZero() {
		return errors.Wrap(errors.ErrModel, "creation time missing")
	}
	if err := p.Eta.Validate(); err != nil {
		return errors.Wrap(err, "eta")
	}
	// Executor and ExecutedAt are either both sentinel or both set.
	if (p.Executor == nil) != p.ExecutedAt.IsZero() {
		return errors.Wrap(errors.ErrModel, "inconsistent execution outcome")
	}
	return nil
}

// ApprovalCount returns the number of approvals currently recorded.
func (p *Proposal) ApprovalCount() int {
	var n int
	for _, ok := range p.Approvals {
		if ok {
			n++
		}
	}
	return n
}

// Executed returns true once the proposal ran. Executed proposals are
// terminal and must never be mutated again.
func (p *Proposal) Executed() bool {
	return !p.ExecutedAt.IsZero()
}

// ReadyAt returns the earliest time this proposal may execute given the
// wallet's minimum delay: the later of the explicit eta and the creation
// time plus the delay.
func (p *Proposal) ReadyAt(minimumDelay strongbox.UnixDuration) strongbox.UnixTime {
	deadline := p.CreatedAt.Add(minimumDelay.Duration())
	if p.Eta > deadline {
		deadline = p.Eta
	}
	return deadline
}

// Address returns the derived address this proposal lives at.
func (p *Proposal) Address() (strongbox.Address, error) {
	c, err := strongbox.DeriveAt("vault", "proposal", p.Bump, p.Wallet, encodeIndex(p.Index))
	if err != nil {
		return nil, errors.Wrap(err, "proposal condition")
	}
	return c.Address(), nil
}

func (instr Instruction) Validate() error {
	if instr.Target == "" {
		return errors.Wrap(ErrInvalidInstruction, "no target module")
	}
	for i, acct := range instr.Accounts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account #%d", i)
		}
	}
	return nil
}

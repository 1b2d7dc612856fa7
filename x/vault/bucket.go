package vault

import (
	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/migration"
	"github.com/keyless-one/strongbox/orm"
)

// WalletBucket stores wallet records under their derived addresses.
type WalletBucket struct {
	orm.ModelBucket
}

func NewWalletBucket() WalletBucket {
	return WalletBucket{
		ModelBucket: orm.NewModelBucket("wallet"),
	}
}

// GetWallet returns the wallet stored under the given address, upgraded to
// the current schema. It returns ErrNotFound for an unknown address.
func (b WalletBucket) GetWallet(db strongbox.ReadOnlyKVStore, addr strongbox.Address) (*Wallet, error) {
	var w Wallet
	if err := b.One(db, addr, &w); err != nil {
		return nil, errors.Wrapf(err, "wallet %s", addr)
	}
	if err := migration.Apply(&w); err != nil {
		return nil, errors.Wrap(err, "migrate wallet")
	}
	return &w, nil
}

// Save persists the wallet under its derived address.
func (b WalletBucket) Save(db strongbox.KVStore, w *Wallet) error {
	addr, err := w.Address()
	if err != nil {
		return errors.Wrap(err, "wallet address")
	}
	return b.Put(db, addr, w)
}

// ProposalBucket stores proposal records under their derived addresses.
type ProposalBucket struct {
	orm.ModelBucket
}

func NewProposalBucket() ProposalBucket {
	return ProposalBucket{
		ModelBucket: orm.NewModelBucket("proposal"),
	}
}

// GetProposal returns the proposal stored under the given address, upgraded
// to the current schema. It returns ErrNotFound for an unknown address.
func (b ProposalBucket) GetProposal(db strongbox.ReadOnlyKVStore, addr strongbox.Address) (*Proposal, error) {
	var p Proposal
	if err := b.One(db, addr, &p); err != nil {
		return nil, errors.Wrapf(err, "proposal %s", addr)
	}
	if err := migration.Apply(&p); err != nil {
		return nil, errors.Wrap(err, "migrate proposal")
	}
	return &p, nil
}

// Save persists the proposal under its derived address.
func (b ProposalBucket) Save(db strongbox.KVStore, p *Proposal) error {
	addr, err := p.Address()
	if err != nil {
		return errors.Wrap(err, "proposal address")
	}
	return b.Put(db, addr, p)
}

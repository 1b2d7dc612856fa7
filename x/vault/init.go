package vault

import (
	"encoding/hex"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ strongbox.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial wallet info from genesis and save it in
// the database.
func (*Initializer) FromGenesis(opts strongbox.Options, db strongbox.KVStore) error {
	var wallets []struct {
		Seed         string                 `json:"seed"`
		Owners       []strongbox.Address    `json:"owners"`
		Threshold    uint32                 `json:"threshold"`
		MinimumDelay strongbox.UnixDuration `json:"minimum_delay"`
		MaxOwners    uint32                 `json:"max_owners"`
	}
	if err := opts.ReadOptions("vault", &wallets); err != nil {
		return errors.Wrap(err, "cannot load vault genesis")
	}

	bucket := NewWalletBucket()
	for i, w := range wallets {
		seed, err := hex.DecodeString(w.Seed)
		if err != nil {
			return errors.Wrapf(errors.ErrInput, "wallet #%d: seed is not hex encoded", i)
		}
		_, bump, err := WalletCondition(seed)
		if err != nil {
			return errors.Wrapf(err, "wallet #%d: derive", i)
		}
		maxOwners := w.MaxOwners
		if maxOwners == 0 {
			maxOwners = maxOwnersAllowed
		}
		wallet := &Wallet{
			Metadata:     &strongbox.Metadata{Schema: 1},
			Seed:         seed,
			Bump:         bump,
			Owners:       w.Owners,
			Threshold:    w.Threshold,
			MinimumDelay: w.MinimumDelay,
			MaxOwners:    maxOwners,
		}
		if err := bucket.Save(db, wallet); err != nil {
			return errors.Wrapf(err, "wallet #%d: save", i)
		}
	}
	return nil
}

package vault

import (
	"encoding/binary"

	"github.com/keyless-one/strongbox"
)

// WalletCondition derives the keyless condition of a wallet from its base
// seed. The condition's address is the wallet address. The returned bump
// must be cached with the wallet so the condition can be reproduced and
// verified later.
func WalletCondition(seed []byte) (strongbox.Condition, uint8, error) {
	return strongbox.Derive("vault", "wallet", seed)
}

// WalletConditionAt reproduces a wallet condition for a known bump value.
func WalletConditionAt(seed []byte, bump uint8) (strongbox.Condition, error) {
	return strongbox.DeriveAt("vault", "wallet", bump, seed)
}

// ProposalCondition derives the address material of a proposal from its
// wallet address and its index within that wallet.
func ProposalCondition(wallet strongbox.Address, index uint64) (strongbox.Condition, uint8, error) {
	return strongbox.Derive("vault", "proposal", wallet, encodeIndex(index))
}

// SubWalletCondition derives an additional authority that extends a wallet
// without allocating a full new one. Sub-wallets are pure derivations;
// nothing is stored for them.
func SubWalletCondition(wallet strongbox.Address, index uint64) (strongbox.Condition, uint8, error) {
	return strongbox.Derive("vault", "subwallet", wallet, encodeIndex(index))
}

func encodeIndex(index uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, index)
	return raw
}

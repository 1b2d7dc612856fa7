package strongboxtest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/keyless-one/strongbox"
	"golang.org/x/crypto/ed25519"
)

// Auth is a mock implementing x.Authenticator interface.
type Auth struct {
	// Signer is always included in the returned conditions if set.
	Signer strongbox.Condition
	// Signers are additional conditions returned after Signer.
	Signers []strongbox.Condition
}

func (a *Auth) GetConditions(strongbox.Context) []strongbox.Condition {
	var conds []strongbox.Condition
	if a.Signer != nil {
		conds = append(conds, a.Signer)
	}
	return append(conds, a.Signers...)
}

func (a *Auth) HasAddress(ctx strongbox.Context, addr strongbox.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}

var condCnt uint32

// NewCondition returns a signature condition for a unique, deterministic
// ed25519 public key. Each call returns a different condition.
func NewCondition() strongbox.Condition {
	n := atomic.AddUint32(&condCnt, 1)
	seed := make([]byte, ed25519.SeedSize)
	binary.BigEndian.PutUint32(seed, n)
	key := ed25519.NewKeyFromSeed(seed)
	pub := key.Public().(ed25519.PublicKey)
	return strongbox.NewCondition("sigs", "ed25519", pub)
}

// Package x holds the interfaces shared by all extensions, most importantly
// the Authenticator that handlers use to learn which conditions vouch for
// the current call.
package x

import (
	"github.com/keyless-one/strongbox"
)

// Authenticator tells us who can authorize actions. All authentication
// information is explicit: a handler receives the conditions asserted for
// the current call and never infers an identity.
type Authenticator interface {
	// GetConditions reveals all conditions asserted for this call.
	GetConditions(strongbox.Context) []strongbox.Condition

	// HasAddress checks if any of the asserted conditions matches the
	// given address.
	HasAddress(strongbox.Context, strongbox.Address) bool
}

// MultiAuth chains together many authenticators into one.
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of authenticators.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls: impls}
}

func (m MultiAuth) GetConditions(ctx strongbox.Context) []strongbox.Condition {
	var res []strongbox.Condition
	for _, impl := range m.impls {
		add := impl.GetConditions(ctx)
		if len(add) > 0 {
			res = append(res, add...)
		}
	}
	return res
}

func (m MultiAuth) HasAddress(ctx strongbox.Context, addr strongbox.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first permission if any, otherwise nil.
func MainSigner(ctx strongbox.Context, auth Authenticator) strongbox.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// HasAllAddresses returns true if all elements in required are
// authenticated.
func HasAllAddresses(ctx strongbox.Context, auth Authenticator, required []strongbox.Address) bool {
	for _, r := range required {
		if !auth.HasAddress(ctx, r) {
			return false
		}
	}
	return true
}

// HasNAddresses returns true if at least n elements in requested are
// authenticated.
func HasNAddresses(ctx strongbox.Context, auth Authenticator, requested []strongbox.Address, n int) bool {
	// Special case: is this an error???
	if n <= 0 {
		return true
	}
	var count int
	for _, r := range requested {
		if auth.HasAddress(ctx, r) {
			count++
			if count >= n {
				return true
			}
		}
	}
	return false
}

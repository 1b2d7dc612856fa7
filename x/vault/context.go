package vault

import (
	"context"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/x"
)

type contextKey int // local to the vault module

const (
	contextKeyAuthority contextKey = iota
)

// withAuthority is a private method, as only this module can assert a
// wallet's derived conditions. Conditions already present on the context
// are preserved, which matters for nested delegated execution.
func withAuthority(ctx strongbox.Context, conds []strongbox.Condition) strongbox.Context {
	if held, ok := ctx.Value(contextKeyAuthority).([]strongbox.Condition); ok {
		conds = append(held, conds...)
	}
	return context.WithValue(ctx, contextKeyAuthority, conds)
}

// Authenticate exposes the wallet conditions the execution delegate
// asserted on the context. Handlers reachable through delegated invocation
// must include it in their authenticator chain.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns the wallet conditions asserted on this context.
func (Authenticate) GetConditions(ctx strongbox.Context) []strongbox.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyAuthority).([]strongbox.Condition)
	return val
}

// HasAddress returns true iff this address is in GetConditions.
func (a Authenticate) HasAddress(ctx strongbox.Context, addr strongbox.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}

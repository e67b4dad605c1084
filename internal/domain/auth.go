package domain

import "context"

// ============================================================
// Auth: authenticated caller
// ============================================================

// Principal is the authenticated caller of a request. Tokens are issued by
// the finance API; the BFA validates them and forwards Token unchanged.
type Principal struct {
	UserID string
	Token  string
}

type principalKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

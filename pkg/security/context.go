package security

import "context"

// Identity is the authenticated caller installed into the request context
// after the chain grants access.
type Identity struct {
	// User is the subject identifier, preferring the "sub" claim over the
	// legacy "uid". Empty when the token info carries neither.
	User string

	// TokenInfo is the full claim mapping the verification produced.
	TokenInfo TokenInfo
}

// identityKey is a private type for the identity context key.
type identityKey struct{}

// SetIdentity stores the authenticated identity in the context. The context
// is request-scoped; identities are never shared across requests.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity. Returns nil when
// the request did not pass through the security chain.
func IdentityFromContext(ctx context.Context) *Identity {
	if v, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return v
	}
	return nil
}

// UserFromContext returns the authenticated subject, or the empty string.
func UserFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.User
	}
	return ""
}

// TokenInfoFromContext returns the full claim mapping, or nil.
func TokenInfoFromContext(ctx context.Context) TokenInfo {
	if id := IdentityFromContext(ctx); id != nil {
		return id.TokenInfo
	}
	return nil
}

package security

import "context"

// Verification functions supplied by the application (or built in). All four
// share one contract: resolve to a TokenInfo, reject with a nil TokenInfo
// and nil error, opt out with ErrNotApplicable, or fail with an error. The
// context bounds any I/O the function performs.
type (
	// TokenInfoFunc verifies a bearer or oauth2 access token.
	TokenInfoFunc func(ctx context.Context, token string) (TokenInfo, error)

	// BasicInfoFunc verifies a username and password pair.
	BasicInfoFunc func(ctx context.Context, username, password string) (TokenInfo, error)

	// APIKeyInfoFunc verifies an API key.
	APIKeyInfoFunc func(ctx context.Context, key string) (TokenInfo, error)

	// ScopeValidateFunc reports whether the granted scopes satisfy the
	// scopes an operation requires.
	ScopeValidateFunc func(required, granted []string) bool
)

// InfoResult is a deferred verification outcome delivered on a channel.
type InfoResult struct {
	Info TokenInfo
	Err  error
}

// Await resolves a deferred verification result. It suspends until the
// result is delivered or the context is done. This is the single point in
// the pipeline where pending work is waited on: verifiers and the chain
// above them only ever observe a final value or an error.
func Await(ctx context.Context, ch <-chan InfoResult) (TokenInfo, error) {
	select {
	case res := <-ch:
		return res.Info, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Blocking adapts a synchronous, context-free callable to the TokenInfoFunc
// contract. The callable runs on the calling goroutine; in a blocking
// deployment this is the worker thread, in a cooperative one the scheduler
// parks the goroutine for the duration.
func Blocking(f func(token string) (TokenInfo, error)) TokenInfoFunc {
	return func(_ context.Context, token string) (TokenInfo, error) {
		return f(token)
	}
}

// Deferred adapts a callable that completes asynchronously by delivering its
// result on a channel. The channel is awaited here, under the request
// context, so callers see the same resolve-or-fail contract as with a
// synchronous function.
func Deferred(f func(token string) <-chan InfoResult) TokenInfoFunc {
	return func(ctx context.Context, token string) (TokenInfo, error) {
		return Await(ctx, f(token))
	}
}

// DeferredBasic is Deferred for username/password verification.
func DeferredBasic(f func(username, password string) <-chan InfoResult) BasicInfoFunc {
	return func(ctx context.Context, username, password string) (TokenInfo, error) {
		return Await(ctx, f(username, password))
	}
}

// DeferredAPIKey is Deferred for API key verification.
func DeferredAPIKey(f func(key string) <-chan InfoResult) APIKeyInfoFunc {
	return func(ctx context.Context, key string) (TokenInfo, error) {
		return Await(ctx, f(key))
	}
}

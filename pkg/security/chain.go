package security

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/specgate/specgate/pkg/observability"
)

// Chain evaluates an operation's scheme verifiers in declaration order.
// The first verifier that does not abstain is authoritative: the chain
// short-circuits and later verifiers are never invoked, so their side
// effects (such as remote introspection calls) never begin.
type Chain struct {
	// Verifiers are evaluated left to right.
	Verifiers []Verifier

	// RequiredScopes are the scopes the operation demands from oauth2
	// credentials.
	RequiredScopes []string
}

// Verify runs the chain against one request. It returns the granted token
// info, or a typed AuthError: the first rejection encountered, or a
// no-authorization failure when every verifier abstained.
func (c *Chain) Verify(ctx context.Context, r *http.Request) (TokenInfo, error) {
	for _, verify := range c.Verifiers {
		res := verify(ctx, r, c.RequiredScopes)
		switch res.Decision {
		case Abstain:
			continue
		case Rejected:
			observability.AuthDeniedTotal.WithLabelValues(reasonLabel(res.Err)).Inc()
			return nil, res.Err
		case Granted:
			return res.Info, nil
		}
	}

	slog.Info("no authorization provided, refusing with 401", "path", r.URL.Path)
	observability.AuthDeniedTotal.WithLabelValues(string(ReasonNoAuthorization)).Inc()
	return nil, errNoAuthorization()
}

// ErrorWriter renders a security failure onto the response. The dispatch
// layer supplies one that writes problem+json.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Wrap builds the security-checked handler for one operation. It is called
// once at route-registration time; the returned handler is what receives
// requests. On success the authenticated identity is installed into the
// request context before the wrapped handler runs; on failure the handler
// is never invoked.
func Wrap(verifiers []Verifier, requiredScopes []string, next http.Handler, onError ErrorWriter) http.Handler {
	chain := &Chain{Verifiers: verifiers, RequiredScopes: requiredScopes}
	if onError == nil {
		onError = defaultErrorWriter
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := chain.Verify(r.Context(), r)
		if err != nil {
			onError(w, r, err)
			return
		}

		ctx := SetIdentity(r.Context(), &Identity{
			User:      info.Subject(),
			TokenInfo: info,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reasonLabel extracts a metrics label from a chain failure.
func reasonLabel(err error) string {
	if ae, ok := AsAuthError(err); ok {
		return string(ae.Reason)
	}
	return "unknown"
}

// defaultErrorWriter is a minimal fallback for callers that wire no renderer.
func defaultErrorWriter(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusUnauthorized
	if ae, ok := AsAuthError(err); ok {
		status = ae.Status
	}
	http.Error(w, err.Error(), status)
}

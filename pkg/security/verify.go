package security

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/specgate/specgate/pkg/observability"
)

// Verifier checks one security scheme against a request. Every invocation
// produces exactly one of: a granted token info, a typed rejection, or an
// abstention meaning the request carries no credential for this scheme.
type Verifier func(ctx context.Context, r *http.Request, requiredScopes []string) Result

// VerifyBearer builds a verifier for the http bearer scheme. The token is
// taken from "Authorization: Bearer <token>"; any other authorization type
// abstains so later schemes get a chance.
func VerifyBearer(info TokenInfoFunc) Verifier {
	return func(ctx context.Context, r *http.Request, _ []string) Result {
		return observe("bearer", func() Result {
			typ, token, ok, err := authHeader(r)
			if err != nil {
				return rejected(err)
			}
			if !ok || typ != "bearer" {
				return abstain()
			}

			ti, err := info(ctx, token)
			return classify(ti, err, errInvalidToken)
		})
	}
}

// VerifyBasic builds a verifier for the http basic scheme.
func VerifyBasic(info BasicInfoFunc) Verifier {
	return func(ctx context.Context, r *http.Request, _ []string) Result {
		return observe("basic", func() Result {
			typ, value, ok, err := authHeader(r)
			if err != nil {
				return rejected(err)
			}
			if !ok || typ != "basic" {
				return abstain()
			}

			username, password, err := basicCredentials(value)
			if err != nil {
				return rejected(err)
			}

			ti, err := info(ctx, username, password)
			return classify(ti, err, errInvalidCredentials)
		})
	}
}

// VerifyAPIKey builds a verifier for an apiKey scheme carried in the named
// query parameter, header, or cookie.
func VerifyAPIKey(info APIKeyInfoFunc, loc Location, name string) Verifier {
	return func(ctx context.Context, r *http.Request, _ []string) Result {
		return observe("apiKey", func() Result {
			key, ok := apiKey(r, loc, name)
			if !ok {
				return abstain()
			}

			ti, err := info(ctx, key)
			return classify(ti, err, errInvalidAPIKey)
		})
	}
}

// VerifyOAuth2 builds a verifier for the oauth2 scheme: a bearer token whose
// granted scopes must cover the operation's required scopes. A nil validate
// function falls back to subset validation.
func VerifyOAuth2(info TokenInfoFunc, validate ScopeValidateFunc) Verifier {
	if validate == nil {
		validate = ValidateScopes
	}
	return func(ctx context.Context, r *http.Request, requiredScopes []string) Result {
		return observe("oauth2", func() Result {
			typ, token, ok, err := authHeader(r)
			if err != nil {
				return rejected(err)
			}
			if !ok || typ != "bearer" {
				return abstain()
			}

			ti, err := info(ctx, token)
			res := classify(ti, err, errInvalidToken)
			if res.Decision != Granted {
				return res
			}

			granted := res.Info.Scopes()
			if !validate(requiredScopes, granted) {
				slog.Info("token scopes do not cover the operation's required scopes",
					"required", requiredScopes,
					"granted", granted,
				)
				return rejected(errInsufficientScope(requiredScopes, granted))
			}
			return res
		})
	}
}

// ValidateScopes is the default scope check: every required scope must be
// present among the granted scopes.
func ValidateScopes(required, granted []string) bool {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	for _, s := range required {
		if !have[s] {
			return false
		}
	}
	return true
}

// classify turns a verification function's return into a Result. A nil
// TokenInfo with a nil error means the credential was recognized and
// rejected; ErrNotApplicable lets the scheme abstain; a typed AuthError
// (e.g. from remote introspection) passes through unchanged; any other
// error becomes the scheme's default rejection.
func classify(info TokenInfo, err error, reject func(error) *AuthError) Result {
	if err != nil {
		if errors.Is(err, ErrNotApplicable) {
			return abstain()
		}
		if ae, ok := AsAuthError(err); ok {
			return rejected(ae)
		}
		return rejected(reject(err))
	}
	if info == nil {
		return rejected(reject(nil))
	}
	return granted(info)
}

// observe runs a verifier body and records its outcome.
func observe(scheme string, f func() Result) Result {
	res := f()
	observability.AuthAttemptsTotal.WithLabelValues(scheme, res.Decision.String()).Inc()
	if res.Decision == Rejected {
		slog.Warn("credential rejected", "scheme", scheme, "error", res.Err)
	}
	return res
}

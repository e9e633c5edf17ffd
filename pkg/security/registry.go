package security

import (
	"fmt"
	"os"
)

// Environment variables consulted when a security definition names no
// verification function of its own.
const (
	EnvTokenInfoFunc     = "TOKENINFO_FUNC"
	EnvTokenInfoURL      = "TOKENINFO_URL"
	EnvScopeValidateFunc = "SCOPEVALIDATE_FUNC"
	EnvBasicInfoFunc     = "BASICINFO_FUNC"
	EnvAPIKeyInfoFunc    = "APIKEYINFO_FUNC"
	EnvBearerInfoFunc    = "BEARERINFO_FUNC"
)

// Registry maps the string function references that appear in security
// definitions (x-tokenInfoFunc and friends) to Go implementations. It is
// populated at startup; lookups happen while routes are registered, so an
// unresolvable name is a configuration failure before the server ever
// accepts a request.
type Registry struct {
	tokenInfo     map[string]TokenInfoFunc
	basicInfo     map[string]BasicInfoFunc
	apiKeyInfo    map[string]APIKeyInfoFunc
	scopeValidate map[string]ScopeValidateFunc

	introspector *Introspector
}

// NewRegistry creates an empty registry backed by the given introspector.
// A nil introspector gets default timeout and pool sizing.
func NewRegistry(introspector *Introspector) *Registry {
	if introspector == nil {
		introspector = NewIntrospector()
	}
	return &Registry{
		tokenInfo:     make(map[string]TokenInfoFunc),
		basicInfo:     make(map[string]BasicInfoFunc),
		apiKeyInfo:    make(map[string]APIKeyInfoFunc),
		scopeValidate: make(map[string]ScopeValidateFunc),
		introspector:  introspector,
	}
}

// RegisterTokenInfo registers a named bearer/oauth2 verification function.
func (r *Registry) RegisterTokenInfo(name string, f TokenInfoFunc) {
	r.tokenInfo[name] = f
}

// RegisterBasicInfo registers a named basic-auth verification function.
func (r *Registry) RegisterBasicInfo(name string, f BasicInfoFunc) {
	r.basicInfo[name] = f
}

// RegisterAPIKeyInfo registers a named API key verification function.
func (r *Registry) RegisterAPIKeyInfo(name string, f APIKeyInfoFunc) {
	r.apiKeyInfo[name] = f
}

// RegisterScopeValidate registers a named scope validation function.
func (r *Registry) RegisterScopeValidate(name string, f ScopeValidateFunc) {
	r.scopeValidate[name] = f
}

// ResolveTokenInfo resolves the verification function for an oauth2
// definition: the named function (or its environment fallback) wins; with
// no function configured, a token-info URL (or its environment fallback)
// builds a remote introspection call instead.
func (r *Registry) ResolveTokenInfo(funcName, tokenInfoURL string) (TokenInfoFunc, error) {
	name := fallback(funcName, EnvTokenInfoFunc)
	if name != "" {
		f, ok := r.tokenInfo[name]
		if !ok {
			return nil, fmt.Errorf("token-info function %q is not registered: %w", name, ErrConfiguration)
		}
		return f, nil
	}

	if url := fallback(tokenInfoURL, EnvTokenInfoURL); url != "" {
		return r.introspector.TokenInfoFunc(url), nil
	}

	return nil, fmt.Errorf("no token-info function or URL configured: %w", ErrConfiguration)
}

// ResolveBearerInfo resolves the verification function for a plain http
// bearer definition. It accepts the bearer-specific reference first and
// falls back to the oauth2 token-info resolution, mirroring how bearer
// schemes are usually backed by the same token service.
func (r *Registry) ResolveBearerInfo(funcName, tokenInfoFunc, tokenInfoURL string) (TokenInfoFunc, error) {
	name := fallback(funcName, EnvBearerInfoFunc)
	if name != "" {
		f, ok := r.tokenInfo[name]
		if !ok {
			return nil, fmt.Errorf("bearer-info function %q is not registered: %w", name, ErrConfiguration)
		}
		return f, nil
	}
	return r.ResolveTokenInfo(tokenInfoFunc, tokenInfoURL)
}

// ResolveBasicInfo resolves the verification function for a basic definition.
func (r *Registry) ResolveBasicInfo(funcName string) (BasicInfoFunc, error) {
	name := fallback(funcName, EnvBasicInfoFunc)
	if name == "" {
		return nil, fmt.Errorf("no basic-info function configured: %w", ErrConfiguration)
	}
	f, ok := r.basicInfo[name]
	if !ok {
		return nil, fmt.Errorf("basic-info function %q is not registered: %w", name, ErrConfiguration)
	}
	return f, nil
}

// ResolveAPIKeyInfo resolves the verification function for an apiKey
// definition.
func (r *Registry) ResolveAPIKeyInfo(funcName string) (APIKeyInfoFunc, error) {
	name := fallback(funcName, EnvAPIKeyInfoFunc)
	if name == "" {
		return nil, fmt.Errorf("no apikey-info function configured: %w", ErrConfiguration)
	}
	f, ok := r.apiKeyInfo[name]
	if !ok {
		return nil, fmt.Errorf("apikey-info function %q is not registered: %w", name, ErrConfiguration)
	}
	return f, nil
}

// ResolveScopeValidate resolves the scope validation function, defaulting to
// subset validation when no function is named.
func (r *Registry) ResolveScopeValidate(funcName string) (ScopeValidateFunc, error) {
	name := fallback(funcName, EnvScopeValidateFunc)
	if name == "" {
		return ValidateScopes, nil
	}
	f, ok := r.scopeValidate[name]
	if !ok {
		return nil, fmt.Errorf("scope-validate function %q is not registered: %w", name, ErrConfiguration)
	}
	return f, nil
}

func fallback(value, envKey string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envKey)
}

// Package spec loads the OpenAPI document that drives route registration
// and security enforcement. It models only the parts the gateway needs:
// paths, operations, security schemes, and per-operation security
// requirements. It does not attempt to fully validate the document.
package spec

// Kind is the normalized category of a security scheme.
type Kind string

const (
	KindBasic  Kind = "basic"
	KindBearer Kind = "bearer"
	KindAPIKey Kind = "apiKey"
	KindOAuth2 Kind = "oauth2"
)

// SecurityScheme is the declarative description of one authentication
// scheme, immutable once loaded. The x- extensions reference verification
// functions by registry name, or a remote token-info URL.
type SecurityScheme struct {
	Type   string `yaml:"type"`   // "http", "apiKey", "oauth2"; swagger-2 also "basic"
	Scheme string `yaml:"scheme"` // for http: "basic" or "bearer"
	In     string `yaml:"in"`     // for apiKey: "query", "header" or "cookie"
	Name   string `yaml:"name"`   // for apiKey: the parameter name

	TokenInfoFunc     string `yaml:"x-tokenInfoFunc"`
	TokenInfoURL      string `yaml:"x-tokenInfoUrl"`
	ScopeValidateFunc string `yaml:"x-scopeValidateFunc"`
	BasicInfoFunc     string `yaml:"x-basicInfoFunc"`
	APIKeyInfoFunc    string `yaml:"x-apikeyInfoFunc"`
	BearerInfoFunc    string `yaml:"x-bearerInfoFunc"`
}

// Kind normalizes the OpenAPI v3 and swagger-2 spellings into one category.
// Unknown combinations yield the empty Kind.
func (s *SecurityScheme) Kind() Kind {
	switch s.Type {
	case "basic":
		// swagger-2 top-level basic type
		return KindBasic
	case "http":
		switch s.Scheme {
		case "basic":
			return KindBasic
		case "bearer":
			return KindBearer
		}
	case "apiKey":
		return KindAPIKey
	case "oauth2":
		return KindOAuth2
	}
	return ""
}

// Requirement names one security scheme an operation accepts, with the
// scopes it demands when the scheme is oauth2.
type Requirement struct {
	Scheme string
	Scopes []string
}

// Operation is one method+path pair from the document.
type Operation struct {
	ID     string
	Method string
	Path   string

	// Security lists the schemes the operation accepts, in declaration
	// order. Empty with Secured false means the operation is public.
	Security []Requirement
	Secured  bool
}

// RequiredScopes returns the union of scopes across the operation's
// requirements, preserving first-seen order.
func (o *Operation) RequiredScopes() []string {
	var scopes []string
	seen := make(map[string]bool)
	for _, req := range o.Security {
		for _, s := range req.Scopes {
			if !seen[s] {
				seen[s] = true
				scopes = append(scopes, s)
			}
		}
	}
	return scopes
}

// Document is the loaded specification.
type Document struct {
	// Raw holds the original YAML bytes, served back at the spec endpoints.
	Raw []byte

	SecuritySchemes map[string]*SecurityScheme
	Operations      []*Operation
}

package security

import "strings"

// TokenInfo is the claim mapping produced by a successful credential
// verification. Beyond the reserved subject and scope keys it has no fixed
// schema; arbitrary claims pass through untouched into the request context.
type TokenInfo map[string]any

// Subject returns the authenticated subject identifier from the "sub" claim,
// falling back to the legacy "uid" claim. Empty string when neither is set.
func (t TokenInfo) Subject() string {
	if s, ok := t["sub"].(string); ok && s != "" {
		return s
	}
	if s, ok := t["uid"].(string); ok {
		return s
	}
	return ""
}

// Scopes returns the granted scopes from the "scope" claim, falling back to
// the legacy "scopes" claim. Either claim may be a space-delimited string or
// a sequence of strings.
func (t TokenInfo) Scopes() []string {
	v, ok := t["scope"]
	if !ok {
		v, ok = t["scopes"]
	}
	if !ok {
		return nil
	}

	switch s := v.(type) {
	case string:
		return strings.Fields(s)
	case []string:
		return s
	case []any:
		var scopes []string
		for _, item := range s {
			if str, ok := item.(string); ok {
				scopes = append(scopes, str)
			}
		}
		return scopes
	}
	return nil
}

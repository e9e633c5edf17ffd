package security

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Location says where an API key is carried in the request.
type Location string

const (
	InQuery  Location = "query"
	InHeader Location = "header"
	InCookie Location = "cookie"
)

// authHeader splits the Authorization header into its lower-cased scheme
// token and value. Returns ok=false when the header is absent. A header that
// cannot be split into two parts is malformed and yields an invalid-header
// failure rather than a silent no-match.
func authHeader(r *http.Request) (typ, value string, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", false, nil
	}

	i := strings.IndexAny(header, " \t")
	if i < 0 {
		return "", "", false, errInvalidHeader()
	}

	typ = strings.ToLower(header[:i])
	value = strings.TrimLeft(header[i+1:], " \t")
	if value == "" {
		return "", "", false, errInvalidHeader()
	}
	return typ, value, true, nil
}

// basicCredentials decodes a Basic authorization value into username and
// password. The value is base64 of "user:pass"; decode or split failure is
// an invalid-header failure.
func basicCredentials(value string) (username, password string, err error) {
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", "", errInvalidHeader()
	}

	// Raw bytes map one-to-one onto the string, matching the Latin-1
	// semantics of the HTTP basic scheme.
	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", errInvalidHeader()
	}
	return username, password, nil
}

// apiKey reads the named API key from the configured location. A lookup miss
// is an absence, never a failure.
func apiKey(r *http.Request, loc Location, name string) (string, bool) {
	switch loc {
	case InQuery:
		if !r.URL.Query().Has(name) {
			return "", false
		}
		return r.URL.Query().Get(name), true
	case InHeader:
		if v := r.Header.Get(name); v != "" {
			return v, true
		}
		return "", false
	case InCookie:
		c, err := r.Cookie(name)
		if err != nil {
			// http.ErrNoCookie or a malformed cookie pair: treat as absent.
			return "", false
		}
		return c.Value, true
	}
	return "", false
}

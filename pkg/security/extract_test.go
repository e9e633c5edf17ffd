package security

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthHeader_Absent(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	_, _, ok, err := authHeader(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("ok = true for absent header, want false")
	}
}

func TestAuthHeader_SplitsTypeAndValue(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantType  string
		wantValue string
	}{
		{"bearer", "Bearer abc123", "bearer", "abc123"},
		{"mixed case", "BEARER abc123", "bearer", "abc123"},
		{"basic", "Basic dXNlcjpwYXNz", "basic", "dXNlcjpwYXNz"},
		{"extra whitespace", "Bearer   abc123", "bearer", "abc123"},
		{"tab separator", "Bearer\tabc123", "bearer", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.Header.Set("Authorization", tt.header)

			typ, value, ok, err := authHeader(r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ok {
				t.Fatal("ok = false, want true")
			}
			if typ != tt.wantType {
				t.Errorf("type = %q, want %q", typ, tt.wantType)
			}
			if value != tt.wantValue {
				t.Errorf("value = %q, want %q", value, tt.wantValue)
			}
		})
	}
}

func TestAuthHeader_Malformed(t *testing.T) {
	// A header with no whitespace-separated value is malformed, not a
	// silent no-match.
	for _, header := range []string{"Bearer", "Bearer "} {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", header)

		_, _, _, err := authHeader(r)
		ae, ok := AsAuthError(err)
		if !ok {
			t.Fatalf("header %q: error = %v, want AuthError", header, err)
		}
		if ae.Reason != ReasonInvalidHeader {
			t.Errorf("header %q: reason = %q, want %q", header, ae.Reason, ReasonInvalidHeader)
		}
		if ae.Status != http.StatusBadRequest {
			t.Errorf("header %q: status = %d, want 400", header, ae.Status)
		}
	}
}

func TestBasicCredentials(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte("alice:s3cret"))

	user, pass, err := basicCredentials(value)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != "alice" || pass != "s3cret" {
		t.Errorf("credentials = %q/%q, want alice/s3cret", user, pass)
	}
}

func TestBasicCredentials_PasswordWithColon(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte("alice:pa:ss"))

	user, pass, err := basicCredentials(value)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != "alice" || pass != "pa:ss" {
		t.Errorf("credentials = %q/%q, want alice/pa:ss", user, pass)
	}
}

func TestBasicCredentials_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"no colon", base64.StdEncoding.EncodeToString([]byte("alicesecret"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := basicCredentials(tt.value)
			ae, ok := AsAuthError(err)
			if !ok {
				t.Fatalf("error = %v, want AuthError", err)
			}
			if ae.Reason != ReasonInvalidHeader {
				t.Errorf("reason = %q, want %q", ae.Reason, ReasonInvalidHeader)
			}
		})
	}
}

func TestAPIKey_Query(t *testing.T) {
	r := httptest.NewRequest("GET", "/pets?api_key=k-123", nil)

	key, ok := apiKey(r, InQuery, "api_key")
	if !ok || key != "k-123" {
		t.Errorf("apiKey = %q/%v, want k-123/true", key, ok)
	}

	if _, ok := apiKey(r, InQuery, "other"); ok {
		t.Error("found key under wrong query name")
	}
}

func TestAPIKey_Header(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Api-Key", "k-456")

	key, ok := apiKey(r, InHeader, "X-Api-Key")
	if !ok || key != "k-456" {
		t.Errorf("apiKey = %q/%v, want k-456/true", key, ok)
	}

	if _, ok := apiKey(r, InHeader, "X-Other"); ok {
		t.Error("found key under wrong header name")
	}
}

func TestAPIKey_Cookie(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Cookie", "session=abc; api_key=k-789")

	key, ok := apiKey(r, InCookie, "api_key")
	if !ok || key != "k-789" {
		t.Errorf("apiKey = %q/%v, want k-789/true", key, ok)
	}

	if _, ok := apiKey(r, InCookie, "missing"); ok {
		t.Error("found key under missing cookie name")
	}
}

func TestAPIKey_UnknownLocation(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	if _, ok := apiKey(r, Location("body"), "k"); ok {
		t.Error("unknown location should never match")
	}
}

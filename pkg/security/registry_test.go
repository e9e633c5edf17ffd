package security

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry_ResolveTokenInfo(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterTokenInfo("check", staticTokenInfo(TokenInfo{"sub": "alice"}, nil))

	t.Run("registered name", func(t *testing.T) {
		f, err := reg.ResolveTokenInfo("check", "")
		if err != nil {
			t.Fatalf("ResolveTokenInfo: %v", err)
		}
		info, _ := f(context.Background(), "tok")
		if info.Subject() != "alice" {
			t.Errorf("subject = %q", info.Subject())
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := reg.ResolveTokenInfo("missing", "")
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("err = %v, want ErrConfiguration", err)
		}
	})

	t.Run("url builds introspection", func(t *testing.T) {
		f, err := reg.ResolveTokenInfo("", "http://tokens.example/info")
		if err != nil {
			t.Fatalf("ResolveTokenInfo: %v", err)
		}
		if f == nil {
			t.Error("resolved function is nil")
		}
	})

	t.Run("name wins over url", func(t *testing.T) {
		f, err := reg.ResolveTokenInfo("check", "http://tokens.example/info")
		if err != nil {
			t.Fatalf("ResolveTokenInfo: %v", err)
		}
		info, _ := f(context.Background(), "tok")
		if info.Subject() != "alice" {
			t.Error("registered function did not take precedence over the URL")
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := reg.ResolveTokenInfo("", "")
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("err = %v, want ErrConfiguration", err)
		}
	})
}

func TestRegistry_EnvironmentFallbacks(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterTokenInfo("env-check", staticTokenInfo(TokenInfo{"sub": "env"}, nil))

	t.Run("function name from env", func(t *testing.T) {
		t.Setenv(EnvTokenInfoFunc, "env-check")

		f, err := reg.ResolveTokenInfo("", "")
		if err != nil {
			t.Fatalf("ResolveTokenInfo: %v", err)
		}
		info, _ := f(context.Background(), "tok")
		if info.Subject() != "env" {
			t.Errorf("subject = %q, want env", info.Subject())
		}
	})

	t.Run("url from env", func(t *testing.T) {
		t.Setenv(EnvTokenInfoURL, "http://tokens.example/info")

		if _, err := reg.ResolveTokenInfo("", ""); err != nil {
			t.Errorf("ResolveTokenInfo: %v", err)
		}
	})

	t.Run("definition beats env", func(t *testing.T) {
		t.Setenv(EnvTokenInfoFunc, "ignored-because-definition-wins")

		f, err := reg.ResolveTokenInfo("env-check", "")
		if err != nil {
			t.Fatalf("ResolveTokenInfo: %v", err)
		}
		info, _ := f(context.Background(), "tok")
		if info.Subject() != "env" {
			t.Errorf("subject = %q", info.Subject())
		}
	})
}

func TestRegistry_ResolveBearerInfo(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterTokenInfo("bearer-check", staticTokenInfo(TokenInfo{"sub": "b"}, nil))
	reg.RegisterTokenInfo("token-check", staticTokenInfo(TokenInfo{"sub": "t"}, nil))

	t.Run("bearer reference wins", func(t *testing.T) {
		f, err := reg.ResolveBearerInfo("bearer-check", "token-check", "")
		if err != nil {
			t.Fatalf("ResolveBearerInfo: %v", err)
		}
		info, _ := f(context.Background(), "tok")
		if info.Subject() != "b" {
			t.Errorf("subject = %q, want b", info.Subject())
		}
	})

	t.Run("falls back to token info", func(t *testing.T) {
		f, err := reg.ResolveBearerInfo("", "token-check", "")
		if err != nil {
			t.Fatalf("ResolveBearerInfo: %v", err)
		}
		info, _ := f(context.Background(), "tok")
		if info.Subject() != "t" {
			t.Errorf("subject = %q, want t", info.Subject())
		}
	})
}

func TestRegistry_ResolveBasicInfo(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterBasicInfo("pwcheck", func(_ context.Context, user, _ string) (TokenInfo, error) {
		return TokenInfo{"sub": user}, nil
	})

	if _, err := reg.ResolveBasicInfo("pwcheck"); err != nil {
		t.Errorf("ResolveBasicInfo: %v", err)
	}
	if _, err := reg.ResolveBasicInfo(""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
	if _, err := reg.ResolveBasicInfo("nope"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestRegistry_ResolveAPIKeyInfo(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterAPIKeyInfo("keys", func(context.Context, string) (TokenInfo, error) {
		return TokenInfo{"sub": "svc"}, nil
	})

	if _, err := reg.ResolveAPIKeyInfo("keys"); err != nil {
		t.Errorf("ResolveAPIKeyInfo: %v", err)
	}
	if _, err := reg.ResolveAPIKeyInfo(""); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestRegistry_ResolveScopeValidate(t *testing.T) {
	reg := NewRegistry(nil)
	reg.RegisterScopeValidate("any-one", func(required, granted []string) bool {
		for _, r := range required {
			for _, g := range granted {
				if r == g {
					return true
				}
			}
		}
		return len(required) == 0
	})

	t.Run("default is subset validation", func(t *testing.T) {
		f, err := reg.ResolveScopeValidate("")
		if err != nil {
			t.Fatalf("ResolveScopeValidate: %v", err)
		}
		if !f([]string{"read"}, []string{"read", "write"}) {
			t.Error("default validation rejected a covered scope set")
		}
		if f([]string{"admin"}, []string{"read"}) {
			t.Error("default validation accepted a missing scope")
		}
	})

	t.Run("registered name", func(t *testing.T) {
		f, err := reg.ResolveScopeValidate("any-one")
		if err != nil {
			t.Fatalf("ResolveScopeValidate: %v", err)
		}
		if !f([]string{"read", "admin"}, []string{"admin"}) {
			t.Error("custom validation not in effect")
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := reg.ResolveScopeValidate("nope"); !errors.Is(err, ErrConfiguration) {
			t.Errorf("err = %v, want ErrConfiguration", err)
		}
	})
}

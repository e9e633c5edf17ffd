package security

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/specgate/specgate/pkg/observability"
)

// Introspection defaults, fixed operational parameters shared by every
// request. The pool size matches the original deployment tuning.
const (
	DefaultIntrospectionTimeout = 5 * time.Second
	DefaultIntrospectionPool    = 100

	// maxIntrospectionBody bounds how much of a token-info response body
	// is read, both for parsing and for rejection diagnostics.
	maxIntrospectionBody = 1 << 20
)

// Introspector verifies tokens against a remote token-info endpoint. It is
// the only component in the pipeline permitted to perform network I/O during
// verification. The underlying HTTP client with its connection pool is
// created lazily on first use and shared across all concurrent requests;
// pool configuration is fixed at construction and never mutated per request.
type Introspector struct {
	timeout  time.Duration
	poolSize int

	once   sync.Once
	client *http.Client
}

// IntrospectorOption configures an Introspector.
type IntrospectorOption func(*Introspector)

// WithTimeout overrides the fixed per-call timeout.
func WithTimeout(d time.Duration) IntrospectorOption {
	return func(i *Introspector) { i.timeout = d }
}

// WithPoolSize overrides the idle connection pool size.
func WithPoolSize(n int) IntrospectorOption {
	return func(i *Introspector) { i.poolSize = n }
}

// WithHTTPClient injects a custom HTTP client, bypassing lazy pool
// construction. Useful for testing.
func WithHTTPClient(c *http.Client) IntrospectorOption {
	return func(i *Introspector) { i.client = c }
}

// NewIntrospector creates an introspector with the default timeout and pool
// sizing.
func NewIntrospector(opts ...IntrospectorOption) *Introspector {
	i := &Introspector{
		timeout:  DefaultIntrospectionTimeout,
		poolSize: DefaultIntrospectionPool,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// httpClient returns the shared pooled client, building it on first use.
func (i *Introspector) httpClient() *http.Client {
	i.once.Do(func() {
		if i.client != nil {
			return
		}
		i.client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        i.poolSize,
				MaxIdleConnsPerHost: i.poolSize,
			},
		}
	})
	return i.client
}

// TokenInfo performs a GET against the token-info URL with the token as a
// bearer credential. A non-2xx response is a rejection carrying the raw
// response body; a timeout is treated the same way, not as a no-match,
// since a credential was presented but could not be verified.
func (i *Introspector) TokenInfo(ctx context.Context, tokenInfoURL, token string) (TokenInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building token-info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := i.httpClient().Do(req)
	observability.IntrospectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.IntrospectionRequestsTotal.WithLabelValues("error").Inc()
		return nil, errRemoteUnreachable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIntrospectionBody))
	observability.IntrospectionRequestsTotal.WithLabelValues(statusClass(resp.StatusCode)).Inc()
	if err != nil {
		return nil, errRemoteUnreachable(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errRemoteRejected(resp.StatusCode, body)
	}

	var info TokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parsing token-info response: %w", err)
	}
	return info, nil
}

// TokenInfoFunc binds the introspector to one endpoint, producing a
// verification function the registry can hand to bearer and oauth2
// verifiers when no local function is configured.
func (i *Introspector) TokenInfoFunc(tokenInfoURL string) TokenInfoFunc {
	return func(ctx context.Context, token string) (TokenInfo, error) {
		return i.TokenInfo(ctx, tokenInfoURL, token)
	}
}

// errRemoteUnreachable maps transport failures (including timeouts) onto the
// remote-rejection taxonomy so they surface as 401, never as a silent
// fallthrough to other schemes.
func errRemoteUnreachable(cause error) *AuthError {
	return &AuthError{
		Status: http.StatusUnauthorized,
		Reason: ReasonRemoteRejected,
		Detail: "Token-info endpoint could not be reached",
		Err:    cause,
	}
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

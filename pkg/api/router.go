package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/specgate/specgate/pkg/observability"
	"github.com/specgate/specgate/pkg/security"
	"github.com/specgate/specgate/pkg/spec"
)

// RouterConfig holds the dispatch layer's operational settings.
type RouterConfig struct {
	// SpecPath is where the raw document is served as JSON; a .yaml
	// sibling is derived from it. Default: "/openapi.json".
	SpecPath string

	// Metrics exposes the Prometheus endpoint at MetricsPath.
	Metrics     bool
	MetricsPath string

	Logger *slog.Logger
}

// DefaultRouterConfig returns a RouterConfig with sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		SpecPath:    "/openapi.json",
		Metrics:     true,
		MetricsPath: "/metrics",
		Logger:      slog.Default(),
	}
}

// NewRouter registers every operation in the document, wrapping each secured
// operation's handler with its security chain. Handlers are looked up by
// operationId. Security definitions that reference unresolvable verification
// functions fail here, before the server accepts any request.
func NewRouter(doc *spec.Document, handlers map[string]http.Handler, reg *security.Registry, cfg RouterConfig) (http.Handler, error) {
	if cfg.SpecPath == "" {
		cfg.SpecPath = "/openapi.json"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Recovery)
	r.Use(observability.MetricsMiddleware)

	for _, op := range doc.Operations {
		h, err := operationHandler(doc, op, handlers, reg)
		if err != nil {
			return nil, err
		}
		// OpenAPI path templates ({id}) use the same syntax as chi patterns.
		r.Method(op.Method, op.Path, h)
		cfg.Logger.Debug("operation registered",
			"operation", op.ID,
			"method", op.Method,
			"path", op.Path,
			"secured", op.Secured,
		)
	}

	addSpecRoutes(r, doc, cfg.SpecPath)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	if cfg.Metrics {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	return r, nil
}

// operationHandler resolves the operation's handler and, for secured
// operations, wraps it with the security chain built from its requirements.
func operationHandler(doc *spec.Document, op *spec.Operation, handlers map[string]http.Handler, reg *security.Registry) (http.Handler, error) {
	if op.ID == "" {
		return nil, fmt.Errorf("%s %s has no operationId: %w", op.Method, op.Path, security.ErrConfiguration)
	}
	h, ok := handlers[op.ID]
	if !ok {
		return nil, fmt.Errorf("no handler registered for operation %q: %w", op.ID, security.ErrConfiguration)
	}

	if !op.Secured {
		return h, nil
	}

	verifiers, err := buildVerifiers(doc, op, reg)
	if err != nil {
		return nil, err
	}
	return security.Wrap(verifiers, op.RequiredScopes(), h, WriteError), nil
}

// buildVerifiers turns the operation's security requirements into scheme
// verifiers, in declaration order.
func buildVerifiers(doc *spec.Document, op *spec.Operation, reg *security.Registry) ([]security.Verifier, error) {
	var verifiers []security.Verifier

	for _, req := range op.Security {
		scheme := doc.SecuritySchemes[req.Scheme]

		v, err := buildVerifier(scheme, reg)
		if err != nil {
			return nil, fmt.Errorf("operation %q, scheme %q: %w", op.ID, req.Scheme, err)
		}
		verifiers = append(verifiers, v)
	}

	return verifiers, nil
}

func buildVerifier(scheme *spec.SecurityScheme, reg *security.Registry) (security.Verifier, error) {
	switch scheme.Kind() {
	case spec.KindBearer:
		info, err := reg.ResolveBearerInfo(scheme.BearerInfoFunc, scheme.TokenInfoFunc, scheme.TokenInfoURL)
		if err != nil {
			return nil, err
		}
		return security.VerifyBearer(info), nil

	case spec.KindBasic:
		info, err := reg.ResolveBasicInfo(scheme.BasicInfoFunc)
		if err != nil {
			return nil, err
		}
		return security.VerifyBasic(info), nil

	case spec.KindAPIKey:
		loc := security.Location(scheme.In)
		switch loc {
		case security.InQuery, security.InHeader, security.InCookie:
		default:
			return nil, fmt.Errorf("unsupported apiKey location %q: %w", scheme.In, security.ErrConfiguration)
		}
		info, err := reg.ResolveAPIKeyInfo(scheme.APIKeyInfoFunc)
		if err != nil {
			return nil, err
		}
		return security.VerifyAPIKey(info, loc, scheme.Name), nil

	case spec.KindOAuth2:
		info, err := reg.ResolveTokenInfo(scheme.TokenInfoFunc, scheme.TokenInfoURL)
		if err != nil {
			return nil, err
		}
		validate, err := reg.ResolveScopeValidate(scheme.ScopeValidateFunc)
		if err != nil {
			return nil, err
		}
		return security.VerifyOAuth2(info, validate), nil
	}

	return nil, fmt.Errorf("unsupported security scheme type %q: %w", scheme.Type, security.ErrConfiguration)
}

// addSpecRoutes serves the raw document at the configured path and, when the
// path ends in .json, at a .yaml sibling as well.
func addSpecRoutes(r chi.Router, doc *spec.Document, specPath string) {
	r.Get(specPath, func(w http.ResponseWriter, _ *http.Request) {
		body, err := doc.JSON()
		if err != nil {
			WriteError(w, nil, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})

	if strings.HasSuffix(specPath, ".json") {
		yamlPath := strings.TrimSuffix(specPath, ".json") + ".yaml"
		r.Get(yamlPath, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/yaml")
			w.Write(doc.Raw)
		})
	}
}

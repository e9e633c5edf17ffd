package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/specgate/specgate/pkg/security"
)

// Problem is an RFC 7807 response body. Security failures are translated
// into problems at the HTTP edge; nothing below this layer writes responses.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`

	// Scope diagnostics, present only for insufficient-scope failures.
	RequiredScopes []string `json:"required_scopes,omitempty"`
	GrantedScopes  []string `json:"granted_scopes,omitempty"`
}

// FromError maps an error onto a Problem. Typed authentication failures
// keep their status, detail, and scope diagnostics; anything else becomes
// an opaque internal error.
func FromError(err error) *Problem {
	if ae, ok := security.AsAuthError(err); ok {
		return &Problem{
			Type:           "about:blank",
			Title:          http.StatusText(ae.Status),
			Status:         ae.Status,
			Detail:         ae.Detail,
			RequiredScopes: ae.Required,
			GrantedScopes:  ae.Granted,
		}
	}
	return &Problem{
		Type:   "about:blank",
		Title:  http.StatusText(http.StatusInternalServerError),
		Status: http.StatusInternalServerError,
		Detail: "internal server error",
	}
}

// WriteProblem renders a problem as application/problem+json.
func WriteProblem(w http.ResponseWriter, p *Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("writing problem response", "error", err)
	}
}

// WriteError is the security.ErrorWriter wired into every operation's
// security wrapper.
func WriteError(w http.ResponseWriter, _ *http.Request, err error) {
	WriteProblem(w, FromError(err))
}

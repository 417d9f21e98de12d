package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case !strings.HasPrefix(path, "/api/v1/"):
		return "", false
	case path == "/api/v1/sensors" || strings.HasPrefix(path, "/api/v1/sensors/"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleEditor, true
	case path == "/api/v1/specimens" || strings.HasPrefix(path, "/api/v1/specimens/"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleEditor, true
	case path == "/api/v1/maintenance" || strings.HasPrefix(path, "/api/v1/maintenance/"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleEditor, true
	case path == "/api/v1/watertests" || strings.HasPrefix(path, "/api/v1/watertests/"):
		if method == http.MethodGet {
			return RoleViewer, true
		}
		return RoleEditor, true
	case strings.HasPrefix(path, "/api/v1/exports/"):
		return RoleViewer, true
	case path == "/api/v1/readings" || path == "/api/v1/history":
		return RoleViewer, true
	case path == "/api/v1/alerts/stream":
		return RoleViewer, true
	default:
		return RoleViewer, true
	}
}

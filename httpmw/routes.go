package httpmw

import (
	"net/http"
	"strings"

	"github.com/classicmodels/throttle/policy"
)

// Route maps a path prefix (and optionally a method) to a policy scope.
// An empty Scope means the scope is classified by method instead: read for
// safe methods, write for everything else.
type Route struct {
	Prefix string
	Method string // "" matches any method
	Scope  policy.Scope
}

func (r Route) matches(req *http.Request) bool {
	if r.Method != "" && r.Method != req.Method {
		return false
	}
	return strings.HasPrefix(req.URL.Path, r.Prefix)
}

// DefaultRoutes returns the stock mapping: auth endpoints get their
// dedicated scopes, resource endpoints split into read and write by method.
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: "/api/auth/login/", Method: http.MethodPost, Scope: policy.ScopeLogin},
		{Prefix: "/api/auth/signup/", Method: http.MethodPost, Scope: policy.ScopeRegister},
		{Prefix: "/api/auth/refresh/", Method: http.MethodPost, Scope: policy.ScopeTokenRefresh},
		{Prefix: "/api/auth/logout/", Method: http.MethodPost, Scope: policy.ScopeLogout},
		{Prefix: "/api/auth/me/", Scope: policy.ScopeCurrentUser},
		{Prefix: "/api/v1/"},
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// resolveScope picks the scope for a request. The first matching route
// wins; requests no route claims fall to the anonymous or authenticated
// default scope.
func resolveScope(routes []Route, req *http.Request, authenticated bool) policy.Scope {
	for _, rt := range routes {
		if !rt.matches(req) {
			continue
		}
		if rt.Scope != "" {
			return rt.Scope
		}
		if isSafeMethod(req.Method) {
			return policy.ScopeRead
		}
		return policy.ScopeWrite
	}

	if authenticated {
		return policy.ScopeAuthenticatedDefault
	}
	return policy.ScopeAnonymousDefault
}

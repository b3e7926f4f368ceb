package web

import (
	"context"
	"net/http"
	"strings"

	"coverdesk/internal/authstate"
	"coverdesk/internal/roles"
	"coverdesk/pkg/platform/httputil"
	dErrors "coverdesk/pkg/domain-errors"
)

type contextKeySubject struct{}

// SubjectFromContext returns the authenticated subject placed there by
// RequireAuth.
func SubjectFromContext(ctx context.Context) (authstate.Subject, bool) {
	sub, ok := ctx.Value(contextKeySubject{}).(authstate.Subject)
	return sub, ok
}

// wantsJSON distinguishes API-shaped callers from browser navigations; the
// former get status codes, the latter get redirects.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") ||
		r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// RequireAuth gates a subtree on the authorization fact. Unauthenticated
// browser requests are redirected to the login surface; API callers get 401.
func RequireAuth(container *authstate.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := container.Snapshot()
			if !snap.Authenticated {
				if wantsJSON(r) {
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "login required"))
					return
				}
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeySubject{}, *snap.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles further gates a subtree on an allow-list. A role outside the
// list lands on the generic authenticated surface rather than an error page.
// Must be mounted inside RequireAuth.
func RequireRoles(allowed ...roles.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[roles.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := SubjectFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "login required"))
				return
			}
			if len(allowedSet) > 0 {
				if _, exists := allowedSet[sub.Role]; !exists {
					if wantsJSON(r) {
						httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
						return
					}
					http.Redirect(w, r, "/dashboard", http.StatusFound)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/localauth"
)

type decisionContextKey struct{}

// DecisionFromContext returns the access decision [Guard] attached to ctx.
func DecisionFromContext(ctx context.Context) (localauth.AccessDecision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(localauth.AccessDecision)
	return d, ok
}

// PagePaths maps each gated page to its URL path.
var PagePaths = map[localauth.Page]string{
	localauth.PageLogin:     "/login",
	localauth.PageRegister:  "/register",
	localauth.PageDashboard: "/dashboard",
	localauth.PageReset:     "/reset",
}

// PathFor returns the URL path of page, or "/" for pages without one.
func PathFor(page localauth.Page) string {
	if p, ok := PagePaths[page]; ok {
		return p
	}
	return "/"
}

// Guard runs the engine access gate for page before next. A redirect decision
// becomes a 303 to the target path. HTTP requests have no long-lived page, so
// no inactivity timer is armed.
func Guard(engine *localauth.Engine, page localauth.Page) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			decision, err := engine.CheckAccess(r.Context(), page, nil)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if decision.Redirected {
				http.Redirect(w, r, PathFor(decision.Target), http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), decisionContextKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession guards the dashboard.
func RequireSession(engine *localauth.Engine) func(http.Handler) http.Handler {
	return Guard(engine, localauth.PageDashboard)
}

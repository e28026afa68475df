package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/MrEthical07/localauth"
)

type navigationContextKey struct{}

type navigation struct {
	mu   sync.Mutex
	page localauth.Page
	set  bool
}

// WithNavigation returns a context in which [Navigator] records its target.
func WithNavigation(ctx context.Context) context.Context {
	return context.WithValue(ctx, navigationContextKey{}, &navigation{})
}

// Navigator returns a [localauth.Navigator] that records the target page on
// the request context. Navigation on a context without [WithNavigation],
// such as an inactivity logout firing between requests, is dropped.
func Navigator() localauth.Navigator {
	return localauth.NavigatorFunc(func(ctx context.Context, page localauth.Page) {
		n, ok := ctx.Value(navigationContextKey{}).(*navigation)
		if !ok {
			return
		}
		n.mu.Lock()
		n.page, n.set = page, true
		n.mu.Unlock()
	})
}

// Navigated returns the last page recorded on ctx.
func Navigated(ctx context.Context) (localauth.Page, bool) {
	n, ok := ctx.Value(navigationContextKey{}).(*navigation)
	if !ok {
		return localauth.PageOther, false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page, n.set
}

// Redirect answers with a 303 to the page recorded on r's context and reports
// whether it wrote a response.
func Redirect(w http.ResponseWriter, r *http.Request) bool {
	page, ok := Navigated(r.Context())
	if !ok {
		return false
	}
	http.Redirect(w, r, PathFor(page), http.StatusSeeOther)
	return true
}

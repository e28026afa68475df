package localauth

import (
	"context"

	"github.com/MrEthical07/localauth/session"
)

// Page identifies a navigation target.
type Page uint8

const (
	// PageOther is any page the access gate ignores.
	PageOther Page = iota
	PageLogin
	PageRegister
	PageDashboard
	PageReset
)

func (p Page) String() string {
	switch p {
	case PageLogin:
		return "login"
	case PageRegister:
		return "register"
	case PageDashboard:
		return "dashboard"
	case PageReset:
		return "reset"
	default:
		return "other"
	}
}

// Protected reports whether p requires a live session.
func (p Page) Protected() bool {
	return p == PageDashboard
}

// Entry reports whether p is only meaningful while logged out.
func (p Page) Entry() bool {
	return p == PageLogin || p == PageRegister || p == PageReset
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(ctx context.Context, page Page)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, page Page)

func (f NavigatorFunc) Navigate(ctx context.Context, page Page) {
	f(ctx, page)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, Page) {}

type (
	// Profile is the non-secret part of the session shown to the page.
	Profile = session.Profile
	// SessionContext owns the inactivity timer of one loaded page.
	SessionContext = session.Context
)

// NewSessionContext returns an empty per-page session context.
func NewSessionContext() *SessionContext {
	return session.NewContext()
}

// AccessDecision is the outcome of one page-load check.
type AccessDecision struct {
	// Redirected is true when the gate navigated away; Target names the page.
	Redirected bool
	Target     Page
	// Profile and Greeting are set when a protected page is allowed.
	Profile  Profile
	Greeting string
}

// CheckAccess runs once per page load. A protected page without a live session
// redirects to login; otherwise it arms the inactivity timer on sc and returns
// the stored profile. An entry page with a live session redirects to the
// dashboard. The result is not re-evaluated when the session later expires.
func (e *Engine) CheckAccess(ctx context.Context, page Page, sc *SessionContext) (AccessDecision, error) {
	if e == nil || e.sessions == nil {
		return AccessDecision{}, ErrEngineNotReady
	}

	switch {
	case page.Protected():
		ok, err := e.sessions.IsLoggedIn(ctx)
		if err != nil {
			return AccessDecision{}, mapStoreError(err)
		}
		if !ok {
			return e.redirect(ctx, page, PageLogin), nil
		}

		profile, err := e.sessions.Profile(ctx)
		if err != nil {
			return AccessDecision{}, mapStoreError(err)
		}
		if sc != nil {
			e.sessions.StartInactivityTimer(sc)
		}
		return AccessDecision{
			Target:   page,
			Profile:  profile,
			Greeting: "Hello, " + profile.DisplayName() + "!",
		}, nil

	case page.Entry():
		ok, err := e.sessions.IsLoggedIn(ctx)
		if err != nil {
			return AccessDecision{}, mapStoreError(err)
		}
		if ok {
			return e.redirect(ctx, page, PageDashboard), nil
		}
	}

	return AccessDecision{Target: page}, nil
}

func (e *Engine) redirect(ctx context.Context, from, to Page) AccessDecision {
	e.metricInc(MetricAccessRedirect)
	e.emitAudit(ctx, auditEventAccessRedirect, true, "", nil, func() map[string]string {
		return map[string]string{
			"from": from.String(),
			"to":   to.String(),
		}
	})
	e.navigate(ctx, to)
	return AccessDecision{Redirected: true, Target: to}
}

// RecordActivity restarts the inactivity timer on sc. It is a no-op when no
// session is live.
func (e *Engine) RecordActivity(ctx context.Context, sc *SessionContext) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if sc == nil {
		return nil
	}
	if _, err := e.sessions.ResetInactivityTimer(ctx, sc); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// Logout ends the session, cancels the timer on sc and navigates to login.
func (e *Engine) Logout(ctx context.Context, sc *SessionContext) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if err := e.sessions.Logout(ctx, sc, session.LogoutUser); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// IsLoggedIn reports whether a non-expired session token is stored.
func (e *Engine) IsLoggedIn(ctx context.Context) (bool, error) {
	if e == nil || e.sessions == nil {
		return false, ErrEngineNotReady
	}
	ok, err := e.sessions.IsLoggedIn(ctx)
	if err != nil {
		return false, mapStoreError(err)
	}
	return ok, nil
}

func (e *Engine) onLogout(ctx context.Context, reason session.LogoutReason, profile session.Profile) {
	eventType := auditEventLogout
	metric := MetricLogout
	if reason == session.LogoutInactivity {
		eventType = auditEventInactivityTimeout
		metric = MetricInactivityLogout
	}

	e.metricInc(metric)
	e.emitAudit(ctx, eventType, true, profile.Username, nil, func() map[string]string {
		return map[string]string{"reason": reason.String()}
	})
	e.navigate(ctx, PageLogin)
}

func (e *Engine) navigate(ctx context.Context, page Page) {
	if e.navigator == nil {
		return
	}
	e.navigator.Navigate(ctx, page)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/MrEthical07/localauth"
)

const maxResetAttempts = 3

var errUsage = errors.New("usage")

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register":    {usage: "register", run: (*app).register},
	"login":       {usage: "login [username|email]", run: (*app).login},
	"logout":      {usage: "logout", run: (*app).logout},
	"dashboard":   {usage: "dashboard", run: (*app).dashboard},
	"reset":       {usage: "reset", run: (*app).reset},
	"theme":       {usage: "theme [toggle]", run: (*app).theme},
	"status":      {usage: "status", run: (*app).status},
	"limitations": {usage: "limitations", run: (*app).limitations},
}

// app executes commands against one engine. In the shell, sc holds the
// inactivity timer of the open dashboard.
type app struct {
	engine *localauth.Engine
	in     input
	out    io.Writer
	sc     *localauth.SessionContext
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	ctx = localauth.NewRequestContext(ctx)
	if a.sc != nil {
		if err := a.engine.RecordActivity(ctx, a.sc); err != nil {
			return err
		}
	}
	return cmd.run(a, ctx, args[1:])
}

// shell runs commands line by line until EOF or "exit".
func (a *app) shell(ctx context.Context) error {
	a.sc = localauth.NewSessionContext()
	defer a.sc.Close()

	for {
		line, err := a.in.line("localauth")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return nil
		}
		if h, ok := a.in.(interface{ remember(string) }); ok {
			h.remember(line)
		}

		if err := a.dispatch(ctx, args); err != nil {
			a.printError(err)
		}
	}
}

func (a *app) register(ctx context.Context, _ []string) error {
	form := localauth.FormValues{}
	var err error
	if form[localauth.FieldUsername], err = a.in.line("Username"); err != nil {
		return err
	}
	if form[localauth.FieldEmail], err = a.in.line("Email"); err != nil {
		return err
	}
	if form[localauth.FieldPassword], err = a.in.secret("Password"); err != nil {
		return err
	}
	if form[localauth.FieldHint], err = a.in.line("Recovery hint"); err != nil {
		return err
	}

	if err := a.engine.HandleRegistration(ctx, form); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registration successful. Please log in.")
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	form := localauth.FormValues{}
	var err error
	if len(args) > 0 {
		form[localauth.FieldLoginIdentifier] = args[0]
	} else if form[localauth.FieldLoginIdentifier], err = a.in.line("Username or email"); err != nil {
		return err
	}
	if form[localauth.FieldLoginPassword], err = a.in.secret("Password"); err != nil {
		return err
	}

	if err := a.engine.HandleLogin(ctx, form); err != nil {
		return err
	}
	return a.dashboard(ctx, nil)
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.engine.Logout(ctx, a.sc); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) dashboard(ctx context.Context, _ []string) error {
	d, err := a.engine.CheckAccess(ctx, localauth.PageDashboard, a.sc)
	if err != nil {
		return err
	}
	if d.Redirected {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintln(a.out, d.Greeting)
	if d.Profile.Email != "" {
		fmt.Fprintf(a.out, "Email: %s\n", d.Profile.Email)
	}
	return nil
}

func (a *app) reset(ctx context.Context, _ []string) error {
	form := localauth.FormValues{}
	var err error
	if form[localauth.FieldResetEmail], err = a.in.line("Email"); err != nil {
		return err
	}
	if form[localauth.FieldResetHint], err = a.in.line("Recovery hint"); err != nil {
		return err
	}

	pending, err := a.engine.HandleVerify(ctx, form)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		pw, err := a.in.secret("New password")
		if err != nil {
			return err
		}
		err = a.engine.HandleNewPassword(ctx, pending, localauth.FormValues{localauth.FieldNewPassword: pw})
		if err == nil {
			fmt.Fprintln(a.out, "Password reset successful. Please log in.")
			return nil
		}
		if !errors.Is(err, localauth.ErrWeakPassword) || attempt == maxResetAttempts {
			return err
		}
		showError(a.out, err)
	}
}

func (a *app) theme(ctx context.Context, args []string) error {
	var (
		t   localauth.Theme
		err error
	)
	if len(args) > 0 && args[0] == "toggle" {
		t, err = a.engine.ToggleTheme(ctx)
	} else {
		t, err = a.engine.ThemeFor(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Theme: %s\n", t)
	return nil
}

func (a *app) status(ctx context.Context, _ []string) error {
	r := a.engine.SecurityReport()
	loggedIn, err := a.engine.IsLoggedIn(ctx)
	if err != nil {
		return err
	}
	blocked, err := a.engine.LoginBlocked(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "logged_in: %t\n", loggedIn)
	fmt.Fprintf(a.out, "login_blocked: %t\n", blocked)
	fmt.Fprintf(a.out, "password_algorithm: %s\n", r.Password.Algorithm)
	fmt.Fprintf(a.out, "session_ttl: %s\n", r.SessionTTL)
	fmt.Fprintf(a.out, "inactivity_timeout: %s\n", r.InactivityTimeout)
	fmt.Fprintf(a.out, "max_failed_attempts: %d\n", r.MaxFailedAttempts)
	fmt.Fprintf(a.out, "cooldown: %s\n", r.Cooldown)
	fmt.Fprintf(a.out, "optimistic_writes: %t\n", r.OptimisticWrites)
	fmt.Fprintf(a.out, "audit: %t\n", r.AuditEnabled)
	return nil
}

func (a *app) limitations(context.Context, []string) error {
	for _, l := range a.engine.Limitations() {
		fmt.Fprintf(a.out, "- %s: %s\n", l.Code, l.Summary)
	}
	return nil
}

// printError shows the message a page would show next to the field.
func (a *app) printError(err error) {
	if errors.Is(err, errUsage) {
		fmt.Fprintln(a.out, err)
		printUsage(a.out)
		return
	}
	showError(a.out, err)
}

func showError(w io.Writer, err error) {
	var fe *localauth.FieldError
	if errors.As(err, &fe) && fe.Field != "" {
		fmt.Fprintf(w, "%s: %s\n", fe.Field, localauth.ErrorMessage(err))
		return
	}
	fmt.Fprintln(w, localauth.ErrorMessage(err))
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(w, "  shell")
}

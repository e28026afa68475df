package localauth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form element names read through [FormReader].
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldHint            = "hint"
	FieldLoginIdentifier = "loginIdentifier"
	FieldLoginPassword   = "loginPassword"
	FieldResetEmail      = "resetEmail"
	FieldResetHint       = "resetHint"
	FieldNewPassword     = "newPassword"
)

// Form-level error slots.
const (
	slotLogin       = "login"
	slotVerify      = "verify"
	slotNewPassword = "newPassword"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FormReader returns the raw value of a named form field, "" when absent.
type FormReader interface {
	Value(field string) string
}

// FormValues is a map-backed [FormReader].
type FormValues map[string]string

func (f FormValues) Value(field string) string {
	return f[field]
}

type registerForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,pageemail"`
	Password string `validate:"required"`
	Hint     string `validate:"required"`
}

type loginForm struct {
	Identifier string `validate:"required"`
	Password   string `validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("pageemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// validationError converts a validator failure into a FieldError. A missing
// value is a form-wide failure; a format failure belongs to its field.
func validationError(err error, slot string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &FieldError{Field: slot, Err: ErrValidation}
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &FieldError{Field: slot, Err: ErrValidation}
		}
	}
	for _, fe := range verrs {
		if fe.Tag() == "pageemail" {
			return &FieldError{Field: FieldEmail, Err: errInvalidEmail}
		}
	}
	return &FieldError{Field: slot, Err: ErrValidation}
}

func (e *Engine) validateStruct(s any, slot string) error {
	return validationError(e.validate.Struct(s), slot)
}

// HandleRegistration reads the registration form, creates the account and
// navigates to the login page.
func (e *Engine) HandleRegistration(ctx context.Context, form FormReader) error {
	if e == nil || form == nil {
		return ErrEngineNotReady
	}
	err := e.Register(ctx, RegisterInput{
		Username: strings.TrimSpace(form.Value(FieldUsername)),
		Email:    strings.TrimSpace(form.Value(FieldEmail)),
		Password: form.Value(FieldPassword),
		Hint:     strings.TrimSpace(form.Value(FieldHint)),
	})
	if err != nil {
		return err
	}
	e.navigate(ctx, PageLogin)
	return nil
}

// HandleLogin reads the login form, signs in and navigates to the dashboard.
// Failures are reported against the "login" slot.
func (e *Engine) HandleLogin(ctx context.Context, form FormReader) error {
	if e == nil || form == nil {
		return ErrEngineNotReady
	}
	_, err := e.Login(ctx, strings.TrimSpace(form.Value(FieldLoginIdentifier)), form.Value(FieldLoginPassword))
	if err != nil {
		return asFieldError(slotLogin, err)
	}
	e.navigate(ctx, PageDashboard)
	return nil
}

// HandleVerify runs reset phase one. The returned PendingReset is passed to
// [Engine.HandleNewPassword]; a page reload loses it.
func (e *Engine) HandleVerify(ctx context.Context, form FormReader) (*PendingReset, error) {
	if e == nil || form == nil {
		return nil, ErrEngineNotReady
	}
	pending, err := e.VerifyReset(ctx, strings.TrimSpace(form.Value(FieldResetEmail)), strings.TrimSpace(form.Value(FieldResetHint)))
	if err != nil {
		return nil, asFieldError(slotVerify, err)
	}
	return pending, nil
}

// HandleNewPassword runs reset phase two and navigates to the login page.
func (e *Engine) HandleNewPassword(ctx context.Context, pending *PendingReset, form FormReader) error {
	if e == nil || form == nil {
		return ErrEngineNotReady
	}
	if err := e.ResetPassword(ctx, pending, form.Value(FieldNewPassword)); err != nil {
		return asFieldError(slotNewPassword, err)
	}
	e.navigate(ctx, PageLogin)
	return nil
}

func asFieldError(slot string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		return err
	}
	return &FieldError{Field: slot, Err: err}
}

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/session"
	"github.com/aliqadomi777/front-end-lms/services/lmsapi"
)

// userMessage is the text shown for err on stderr.
func userMessage(err error) string {
	var (
		loginErr *session.LoginError
		valErr   *core.ValidationError
		apiErr   *lmsapi.APIError
	)
	switch {
	case errors.As(err, &loginErr):
		return loginErr.Message
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.Is(err, lmsapi.ErrUnauthorized):
		return "session expired or not allowed, run `lms login`"
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}

// expected reports whether err is a user-facing failure rather than a bug worth reporting.
func expected(err error) bool {
	var (
		loginErr *session.LoginError
		valErr   *core.ValidationError
		apiErr   *lmsapi.APIError
	)
	switch {
	case errors.As(err, &loginErr), errors.As(err, &valErr), errors.As(err, &apiErr):
		return true
	case errors.Is(err, errNotLoggedIn),
		errors.Is(err, errWrongRole),
		errors.Is(err, session.ErrNoOAuthToken),
		errors.Is(err, session.ErrInvalidSession),
		errors.Is(err, session.ErrLoginInProgress),
		errors.Is(err, context.Canceled):
		return true
	}
	return false
}

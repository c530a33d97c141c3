// Package session owns the client's authentication state: the bearer token,
// the validated user record and the role derived from it.
//
// A Store is created once per running client, initialized from the persisted
// token slot, and then mutated only through Login, SetSession and Logout.
// Every transition replaces {Token, User, Role, Status} in a single step, so
// readers never see a user without a role or an authenticated status without a user.
package session

import (
	"context"
	"errors"

	"github.com/aliqadomi777/front-end-lms/core/user"
)

var (
	// ErrNoToken is returned by a TokenStore when its slot is empty.
	ErrNoToken = errors.New("no persisted token")

	ErrAlreadyInitialized = errors.New("session already initialized")
	ErrLoginInProgress    = errors.New("another login is in progress")
	ErrInvalidSession     = errors.New("session requires a token and a user with a role")

	errUnknownRole = errors.New("profile has no known role")
)

// DefaultLoginMessage is used when a failed login carries no server message.
const DefaultLoginMessage = "Login failed"

type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusAuthenticated
	StatusUnauthenticated
	// StatusError is part of the status vocabulary only; failures always rest in StatusUnauthenticated.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Settled reports whether the status is one a route guard may act on.
func (s Status) Settled() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated || s == StatusError
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Token     string
	User      *user.User
	Role      user.Role
	Status    Status
	LastError string
}

func (s Snapshot) Authenticated() bool { return s.Status == StatusAuthenticated }

func (s Snapshot) clone() Snapshot {
	if s.User != nil {
		usr := *s.User
		s.User = &usr
	}
	return s
}

type (
	// AuthAPI is the network boundary the Store consumes.
	AuthAPI interface {
		// Login exchanges credentials for a user and a bearer token.
		Login(ctx context.Context, email, password string) (user.User, string, error)
		// Profile fetches the user a bearer token belongs to.
		Profile(ctx context.Context, token string) (user.User, error)
	}

	// TokenStore persists the bearer token in a single key-value slot.
	TokenStore interface {
		// Get returns ErrNoToken when the slot is empty.
		Get(ctx context.Context) (string, error)
		Set(ctx context.Context, token string) error
		Clear(ctx context.Context) error
	}
)

// Result is what a successful Login resolves to.
type Result struct {
	User  user.User
	Token string
}

// LoginError is the single structured failure a Login surfaces to its caller.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Unwrap() error { return e.Err }

// serverMessager is implemented by API errors that carry a human-readable server message.
type serverMessager interface {
	ServerMessage() string
}

func loginMessage(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return DefaultLoginMessage
}

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/user"
)

type Options struct {
	// Timeout bounds each Initialize and Login network call. Zero waits forever.
	Timeout time.Duration
	Logger  core.Logger
}

type Store struct {
	api     AuthAPI
	tokens  TokenStore
	logger  core.Logger
	timeout time.Duration

	// commitMu serializes transitions together with their persistence side effect.
	commitMu sync.Mutex
	mu       sync.RWMutex
	state    Snapshot
	gen      uint64

	initStarted int32
	initDone    chan struct{}
	loggingIn   int32

	validations singleflight.Group

	subsMu   sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int
	queue    []Snapshot
	flushing bool
}

func NewStore(api AuthAPI, tokens TokenStore, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Store{
		api:      api,
		tokens:   tokens,
		logger:   logger,
		timeout:  opts.Timeout,
		initDone: make(chan struct{}),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// AuthHeader returns the Authorization header value for the current token, or "" when there is none.
// Authenticated API calls must go through it rather than reading the token.
func (s *Store) AuthHeader() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Token == "" || s.state.Status == StatusUnauthenticated {
		return ""
	}
	return "Bearer " + s.state.Token
}

// Subscribe registers fn to receive every committed transition, in commit order. The returned func
// unregisters it. fn runs outside the store's locks and may call Login, SetSession or Logout; a
// transition it commits is delivered once fn returns.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Initialize restores the session from the persisted token. It runs once; later calls return
// ErrAlreadyInitialized. Validation failures are absorbed into StatusUnauthenticated.
func (s *Store) Initialize(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.initStarted, 0, 1) {
		return ErrAlreadyInitialized
	}
	defer close(s.initDone)

	token, err := s.tokens.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			s.logger.Warn("session: reading persisted token", err)
		}
		token = ""
	}

	s.commitMu.Lock()
	if s.Snapshot().Status != StatusUninitialized {
		// a SetSession or Logout already settled the session
		s.commitMu.Unlock()
		return nil
	}
	if token == "" {
		s.commit(Snapshot{Status: StatusUnauthenticated})
		s.commitMu.Unlock()
		s.flush()
		s.logger.Debug("session: no persisted token")
		return nil
	}
	gen := s.commit(Snapshot{Token: token, Status: StatusLoading})
	s.commitMu.Unlock()
	s.flush()

	vctx, cancel := s.withTimeout(ctx)
	usr, err := s.Validate(vctx, token)
	cancel()

	s.commitMu.Lock()
	defer s.flush()
	defer s.commitMu.Unlock()
	if s.currentGen() != gen {
		s.logger.Debug("session: startup validation superseded")
		return nil
	}
	if err != nil {
		s.logger.Info("session: persisted token rejected", err)
		if cErr := s.tokens.Clear(context.WithoutCancel(ctx)); cErr != nil {
			s.logger.Warn("session: clearing persisted token", cErr)
		}
		s.commit(Snapshot{Status: StatusUnauthenticated})
		return nil
	}
	s.commit(authenticated(usr, token))
	s.logger.Debug("session: restored", "role", usr.Role)
	return nil
}

// Validate fetches the profile for token. Concurrent calls for the same token share one request,
// which is bounded by the store timeout rather than by any single caller's ctx. Cancelling ctx only
// stops this caller from waiting.
func (s *Store) Validate(ctx context.Context, token string) (user.User, error) {
	ch := s.validations.DoChan(token, func() (interface{}, error) {
		pctx, cancel := s.withTimeout(context.WithoutCancel(ctx))
		defer cancel()
		usr, err := s.api.Profile(pctx, token)
		if err != nil {
			return user.User{}, err
		}
		usr, ok := withKnownRole(usr)
		if !ok {
			return user.User{}, errUnknownRole
		}
		return usr, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return user.User{}, errors.Wrap(res.Err, "validating token")
		}
		return res.Val.(user.User), nil
	case <-ctx.Done():
		return user.User{}, errors.Wrap(ctx.Err(), "validating token")
	}
}

// Login exchanges credentials for a session. Input validation is the caller's job.
// On failure the returned error is a *LoginError (or ErrLoginInProgress) and an existing
// authenticated session is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) (Result, error) {
	if !atomic.CompareAndSwapInt32(&s.loggingIn, 0, 1) {
		return Result{}, ErrLoginInProgress
	}
	defer atomic.StoreInt32(&s.loggingIn, 0)

	if err := s.waitInitialized(ctx); err != nil {
		return Result{}, &LoginError{Message: DefaultLoginMessage, Err: err}
	}

	s.commitMu.Lock()
	pending := s.Snapshot()
	pending.LastError = ""
	if pending.Status != StatusAuthenticated {
		pending.Status = StatusLoading
	}
	s.commit(pending)
	s.commitMu.Unlock()
	s.flush()

	lctx, cancel := s.withTimeout(ctx)
	usr, token, err := s.api.Login(lctx, email, password)
	cancel()
	if err == nil {
		var ok bool
		if usr, ok = withKnownRole(usr); !ok || token == "" {
			err = ErrInvalidSession
		}
	}
	if err != nil {
		lErr := &LoginError{Message: loginMessage(err), Err: err}
		s.fail(lErr.Message)
		s.logger.Debug("session: login failed", lErr.Message)
		return Result{}, lErr
	}

	s.commitMu.Lock()
	defer s.flush()
	defer s.commitMu.Unlock()
	if err := s.tokens.Set(context.WithoutCancel(ctx), token); err != nil {
		s.failLocked(DefaultLoginMessage)
		return Result{}, &LoginError{Message: DefaultLoginMessage, Err: errors.Wrap(err, "persisting token")}
	}
	s.commit(authenticated(usr, token))
	s.logger.Info("session: logged in", "role", usr.Role)
	return Result{User: usr, Token: token}, nil
}

// SetSession adopts a user and token that the caller already validated (e.g. via Validate after an
// OAuth redirect). It persists the token and commits like a successful Login.
func (s *Store) SetSession(ctx context.Context, usr user.User, token string) error {
	usr, ok := withKnownRole(usr)
	if !ok || token == "" {
		return ErrInvalidSession
	}

	s.commitMu.Lock()
	defer s.flush()
	defer s.commitMu.Unlock()
	if err := s.tokens.Set(ctx, token); err != nil {
		return errors.Wrap(err, "persisting token")
	}
	s.commit(authenticated(usr, token))
	s.logger.Info("session: adopted", "role", usr.Role)
	return nil
}

// Logout resets the session and empties the persisted slot. It is idempotent and makes no network call.
// The in-memory session is reset even when clearing the slot fails.
func (s *Store) Logout(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.flush()
	defer s.commitMu.Unlock()
	err := s.tokens.Clear(ctx)
	s.commit(Snapshot{Status: StatusUnauthenticated})
	s.logger.Debug("session: logged out")
	return errors.Wrap(err, "clearing persisted token")
}

// fail records a login failure message while keeping an authenticated session intact.
func (s *Store) fail(msg string) {
	s.commitMu.Lock()
	defer s.flush()
	defer s.commitMu.Unlock()
	s.failLocked(msg)
}

func (s *Store) failLocked(msg string) {
	next := s.Snapshot()
	if next.Status != StatusAuthenticated {
		next = Snapshot{Status: StatusUnauthenticated}
	}
	next.LastError = msg
	s.commit(next)
}

// commit swaps in next and queues it for subscribers. Callers hold commitMu and call flush
// after releasing it.
func (s *Store) commit(next Snapshot) uint64 {
	s.mu.Lock()
	s.state = next
	s.gen++
	gen := s.gen
	snap := s.state.clone()
	s.mu.Unlock()

	s.subsMu.Lock()
	s.queue = append(s.queue, snap)
	s.subsMu.Unlock()
	return gen
}

func (s *Store) currentGen() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// flush delivers queued snapshots in commit order. One goroutine delivers at a time; a flush
// entered while another is running leaves its snapshots to that one.
func (s *Store) flush() {
	s.subsMu.Lock()
	if s.flushing {
		s.subsMu.Unlock()
		return
	}
	s.flushing = true

	for len(s.queue) > 0 {
		snap := s.queue[0]
		s.queue = s.queue[1:]
		fns := make([]func(Snapshot), 0, len(s.subs))
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}

		s.subsMu.Unlock()
		for _, fn := range fns {
			fn(snap.clone())
		}
		s.subsMu.Lock()
	}
	s.flushing = false
	s.subsMu.Unlock()
}

// waitInitialized blocks while a started Initialize is still running.
func (s *Store) waitInitialized(ctx context.Context) error {
	if atomic.LoadInt32(&s.initStarted) == 0 {
		return nil
	}
	select {
	case <-s.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// withKnownRole normalizes usr.Role. ok is false when the role is not one the client routes.
func withKnownRole(usr user.User) (user.User, bool) {
	usr.Role = user.ParseRole(string(usr.Role))
	return usr, usr.Role != ""
}

func authenticated(usr user.User, token string) Snapshot {
	return Snapshot{
		Token:  token,
		User:   &usr,
		Role:   usr.Role,
		Status: StatusAuthenticated,
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

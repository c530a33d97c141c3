package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliqadomi777/front-end-lms/core/user"
)

type serverErr struct {
	msg string
}

func (e serverErr) Error() string         { return "api: " + e.msg }
func (e serverErr) ServerMessage() string { return e.msg }

type fakeAPI struct {
	loginUser  user.User
	loginToken string
	loginErr   error
	loginGate  chan struct{}

	profiles     map[string]user.User
	profileGate  chan struct{}
	profileCalls int32
	loginCalls   int32
}

func (api *fakeAPI) Login(ctx context.Context, email, password string) (user.User, string, error) {
	atomic.AddInt32(&api.loginCalls, 1)
	if api.loginGate != nil {
		select {
		case <-api.loginGate:
		case <-ctx.Done():
			return user.User{}, "", ctx.Err()
		}
	}
	if api.loginErr != nil {
		return user.User{}, "", api.loginErr
	}
	return api.loginUser, api.loginToken, nil
}

func (api *fakeAPI) Profile(ctx context.Context, token string) (user.User, error) {
	atomic.AddInt32(&api.profileCalls, 1)
	if api.profileGate != nil {
		select {
		case <-api.profileGate:
		case <-ctx.Done():
			return user.User{}, ctx.Err()
		}
	}
	if usr, ok := api.profiles[token]; ok {
		return usr, nil
	}
	return user.User{}, serverErr{msg: "Not authorized"}
}

type fakeTokens struct {
	mu    sync.Mutex
	token string
	sets  int
}

func (ft *fakeTokens) Get(context.Context) (string, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.token == "" {
		return "", ErrNoToken
	}
	return ft.token, nil
}

func (ft *fakeTokens) Set(_ context.Context, token string) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.token = token
	ft.sets++
	return nil
}

func (ft *fakeTokens) Clear(context.Context) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.token = ""
	return nil
}

func (ft *fakeTokens) value() string {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.token
}

var (
	studentA = user.User{ID: 1, Name: "A", Email: "a@x.com", Role: user.RoleStudent}
	adminB   = user.User{ID: 2, Name: "B", Email: "b@x.com", Role: user.RoleAdmin}
)

func newTestStore(api *fakeAPI, tokens *fakeTokens, timeout ...time.Duration) *Store {
	var opts Options
	if len(timeout) > 0 {
		opts.Timeout = timeout[0]
	}
	return NewStore(api, tokens, opts)
}

// checkCoupling asserts user != nil <=> role != "" <=> status == authenticated.
func checkCoupling(t *testing.T, snap Snapshot) {
	t.Helper()
	hasUser := snap.User != nil
	hasRole := snap.Role != ""
	isAuthed := snap.Status == StatusAuthenticated
	if hasUser != hasRole || hasRole != isAuthed {
		t.Errorf("coupling broken: user=%v role=%q status=%v", snap.User, snap.Role, snap.Status)
	}
	if hasUser && snap.User.Role != snap.Role {
		t.Errorf("role %q != user.role %q", snap.Role, snap.User.Role)
	}
}

func TestStore_Initialize(t *testing.T) {
	tests := []struct {
		name          string
		persisted     string
		wantStatus    Status
		wantRole      user.Role
		wantToken     string
		wantPersisted string
		wantCalls     int32
	}{
		{name: "no persisted token", wantStatus: StatusUnauthenticated},
		{
			name:          "valid persisted token",
			persisted:     "tok-admin",
			wantStatus:    StatusAuthenticated,
			wantRole:      user.RoleAdmin,
			wantToken:     "tok-admin",
			wantPersisted: "tok-admin",
			wantCalls:     1,
		},
		{
			name:       "rejected persisted token",
			persisted:  "expired",
			wantStatus: StatusUnauthenticated,
			wantCalls:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{profiles: map[string]user.User{"tok-admin": adminB}}
			tokens := &fakeTokens{token: tt.persisted}
			store := newTestStore(api, tokens)

			require.NoError(t, store.Initialize(context.Background()))

			snap := store.Snapshot()
			assert.Equal(t, tt.wantStatus, snap.Status)
			assert.Equal(t, tt.wantRole, snap.Role)
			assert.Equal(t, tt.wantToken, snap.Token)
			assert.Equal(t, tt.wantPersisted, tokens.value())
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&api.profileCalls))
			checkCoupling(t, snap)
		})
	}
}

func TestStore_Initialize_once(t *testing.T) {
	store := newTestStore(&fakeAPI{}, &fakeTokens{})
	require.NoError(t, store.Initialize(context.Background()))
	assert.Equal(t, ErrAlreadyInitialized, store.Initialize(context.Background()))
}

func TestStore_Initialize_timeout(t *testing.T) {
	api := &fakeAPI{profileGate: make(chan struct{})} // never released
	tokens := &fakeTokens{token: "hung"}
	store := newTestStore(api, tokens, 20*time.Millisecond)

	require.NoError(t, store.Initialize(context.Background()))

	snap := store.Snapshot()
	assert.Equal(t, StatusUnauthenticated, snap.Status)
	assert.Empty(t, snap.Token)
	assert.Empty(t, tokens.value())
}

func TestStore_Initialize_supersededBySetSession(t *testing.T) {
	api := &fakeAPI{
		profiles:    map[string]user.User{"old": studentA},
		profileGate: make(chan struct{}),
	}
	tokens := &fakeTokens{token: "old"}
	store := newTestStore(api, tokens)

	done := make(chan error)
	go func() { done <- store.Initialize(context.Background()) }()

	require.Eventually(t, func() bool {
		return store.Snapshot().Status == StatusLoading
	}, time.Second, time.Millisecond)

	require.NoError(t, store.SetSession(context.Background(), adminB, "oauth"))
	close(api.profileGate)
	require.NoError(t, <-done)

	snap := store.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.Equal(t, user.RoleAdmin, snap.Role)
	assert.Equal(t, "oauth", snap.Token)
	assert.Equal(t, "oauth", tokens.value())
}

func TestStore_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		api := &fakeAPI{loginUser: studentA, loginToken: "abc"}
		tokens := &fakeTokens{}
		store := newTestStore(api, tokens)
		require.NoError(t, store.Initialize(context.Background()))

		res, err := store.Login(context.Background(), "a@x.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, Result{User: studentA, Token: "abc"}, res)

		snap := store.Snapshot()
		assert.Equal(t, "abc", snap.Token)
		assert.Equal(t, user.RoleStudent, snap.User.Role)
		assert.Equal(t, user.RoleStudent, snap.Role)
		assert.Equal(t, StatusAuthenticated, snap.Status)
		assert.Equal(t, "abc", tokens.value())
	})

	t.Run("invalid credentials", func(t *testing.T) {
		api := &fakeAPI{loginErr: serverErr{msg: "Invalid credentials"}}
		tokens := &fakeTokens{}
		store := newTestStore(api, tokens)
		require.NoError(t, store.Initialize(context.Background()))

		_, err := store.Login(context.Background(), "a@x.com", "wrong")
		var lErr *LoginError
		require.True(t, errors.As(err, &lErr))
		assert.Equal(t, "Invalid credentials", lErr.Message)

		snap := store.Snapshot()
		assert.Equal(t, StatusUnauthenticated, snap.Status)
		assert.Equal(t, "Invalid credentials", snap.LastError)
		assert.Empty(t, tokens.value())
		assert.Zero(t, tokens.sets)
		checkCoupling(t, snap)
	})

	t.Run("generic message", func(t *testing.T) {
		api := &fakeAPI{loginErr: errors.New("dial tcp: connection refused")}
		store := newTestStore(api, &fakeTokens{})

		_, err := store.Login(context.Background(), "a@x.com", "secret")
		var lErr *LoginError
		require.True(t, errors.As(err, &lErr))
		assert.Equal(t, DefaultLoginMessage, lErr.Message)
	})

	t.Run("failure keeps existing session", func(t *testing.T) {
		api := &fakeAPI{loginUser: studentA, loginToken: "abc"}
		tokens := &fakeTokens{}
		store := newTestStore(api, tokens)
		_, err := store.Login(context.Background(), "a@x.com", "secret")
		require.NoError(t, err)

		api.loginErr = serverErr{msg: "Invalid credentials"}
		_, err = store.Login(context.Background(), "b@x.com", "wrong")
		require.Error(t, err)

		snap := store.Snapshot()
		assert.Equal(t, StatusAuthenticated, snap.Status)
		assert.Equal(t, "abc", snap.Token)
		assert.Equal(t, "Invalid credentials", snap.LastError)
		assert.Equal(t, "abc", tokens.value())
	})

	t.Run("concurrent login rejected", func(t *testing.T) {
		api := &fakeAPI{loginUser: studentA, loginToken: "abc", loginGate: make(chan struct{})}
		store := newTestStore(api, &fakeTokens{})

		done := make(chan error)
		go func() {
			_, err := store.Login(context.Background(), "a@x.com", "secret")
			done <- err
		}()
		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&api.loginCalls) == 1
		}, time.Second, time.Millisecond)

		_, err := store.Login(context.Background(), "a@x.com", "secret")
		assert.Equal(t, ErrLoginInProgress, err)

		close(api.loginGate)
		require.NoError(t, <-done)
		assert.Equal(t, int32(1), atomic.LoadInt32(&api.loginCalls))
	})
}

func TestStore_Logout_idempotent(t *testing.T) {
	api := &fakeAPI{loginUser: studentA, loginToken: "abc"}
	tokens := &fakeTokens{}
	store := newTestStore(api, tokens)
	_, err := store.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "abc", tokens.value())

	want := Snapshot{Status: StatusUnauthenticated}
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Logout(context.Background()))
		assert.Equal(t, want, store.Snapshot())
		assert.Empty(t, tokens.value())
		assert.Empty(t, store.AuthHeader())
	}
}

func TestStore_SetSession(t *testing.T) {
	tokens := &fakeTokens{}
	store := newTestStore(&fakeAPI{}, tokens)

	assert.Equal(t, ErrInvalidSession, store.SetSession(context.Background(), adminB, ""))
	assert.Equal(t, ErrInvalidSession, store.SetSession(context.Background(), user.User{ID: 9}, "tok"))
	assert.Equal(t, StatusUninitialized, store.Snapshot().Status)

	require.NoError(t, store.SetSession(context.Background(), adminB, "google"))
	snap := store.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.Equal(t, user.RoleAdmin, snap.Role)
	assert.Equal(t, "google", tokens.value())
	assert.Equal(t, "Bearer google", store.AuthHeader())
}

func TestStore_Validate_singleFlight(t *testing.T) {
	api := &fakeAPI{
		profiles:    map[string]user.User{"tok": studentA},
		profileGate: make(chan struct{}),
	}
	store := newTestStore(api, &fakeTokens{})

	var wg sync.WaitGroup
	results := make([]user.User, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = store.Validate(context.Background(), "tok")
		}(i)
	}
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.profileCalls) == 1
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(api.profileGate)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.profileCalls))
	for _, usr := range results {
		assert.Equal(t, studentA, usr)
	}
}

func TestStore_Validate_unknownRole(t *testing.T) {
	api := &fakeAPI{profiles: map[string]user.User{"tok": {ID: 3, Name: "C"}}}
	store := newTestStore(api, &fakeTokens{token: "tok"})

	_, err := store.Validate(context.Background(), "tok")
	assert.Error(t, err)

	// Initialize treats it like any other rejection
	store = newTestStore(api, &fakeTokens{token: "tok"})
	require.NoError(t, store.Initialize(context.Background()))
	assert.Equal(t, StatusUnauthenticated, store.Snapshot().Status)
}

func TestStore_Subscribe_coupling(t *testing.T) {
	api := &fakeAPI{
		loginUser:  studentA,
		loginToken: "abc",
		profiles:   map[string]user.User{"tok-admin": adminB},
	}
	store := newTestStore(api, &fakeTokens{token: "tok-admin"})

	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	cancel := store.Subscribe(func(snap Snapshot) {
		mu.Lock()
		snaps = append(snaps, snap)
		mu.Unlock()
	})

	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))
	_, err := store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	api.loginErr = serverErr{msg: "nope"}
	_, _ = store.Login(ctx, "a@x.com", "secret")
	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.SetSession(ctx, adminB, "tok-admin"))
	cancel()
	require.NoError(t, store.Logout(ctx))

	mu.Lock()
	defer mu.Unlock()
	statuses := make([]Status, 0, len(snaps))
	for _, snap := range snaps {
		checkCoupling(t, snap)
		statuses = append(statuses, snap.Status)
	}
	assert.Equal(t, []Status{
		StatusLoading, StatusAuthenticated, // Initialize
		StatusAuthenticated, StatusAuthenticated, // Login (already authenticated)
		StatusAuthenticated, StatusAuthenticated, // failed Login keeps the session
		StatusUnauthenticated, // Logout
		StatusAuthenticated,   // SetSession
	}, statuses)
}

func TestStore_Subscribe_reentrant(t *testing.T) {
	api := &fakeAPI{loginUser: studentA, loginToken: "abc"}
	tokens := &fakeTokens{}
	store := newTestStore(api, tokens)

	var (
		once     sync.Once
		statuses []Status
	)
	store.Subscribe(func(snap Snapshot) {
		statuses = append(statuses, snap.Status)
		if snap.Authenticated() {
			once.Do(func() {
				assert.NoError(t, store.Logout(context.Background()))
			})
		}
	})

	done := make(chan error)
	go func() {
		_, err := store.Login(context.Background(), "a@x.com", "secret")
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("login blocked by a subscriber calling Logout")
	}

	assert.Equal(t, []Status{StatusLoading, StatusAuthenticated, StatusUnauthenticated}, statuses)
	assert.Equal(t, StatusUnauthenticated, store.Snapshot().Status)
	assert.Empty(t, tokens.value())
}

func TestStore_roles(t *testing.T) {
	tests := []struct {
		name     string
		role     user.Role
		wantRole user.Role
	}{
		{"known", user.RoleStudent, user.RoleStudent},
		{"mixed case", "Instructor", user.RoleInstructor},
		{"padded upper case", " ADMIN ", user.RoleAdmin},
		{"legacy name", "Teacher", ""},
		{"unknown", "ghost", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr := user.User{ID: 7, Name: "G", Email: "g@x.com", Role: tt.role}
			ctx := context.Background()

			// Login
			tokens := &fakeTokens{}
			store := newTestStore(&fakeAPI{loginUser: usr, loginToken: "tok"}, tokens)
			res, err := store.Login(ctx, "g@x.com", "secret")
			snap := store.Snapshot()
			checkCoupling(t, snap)
			if tt.wantRole == "" {
				var lErr *LoginError
				require.True(t, errors.As(err, &lErr))
				assert.True(t, errors.Is(err, ErrInvalidSession))
				assert.Equal(t, StatusUnauthenticated, snap.Status)
				assert.Empty(t, tokens.value())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, res.User.Role)
				assert.Equal(t, tt.wantRole, snap.Role)
			}

			// SetSession
			store = newTestStore(&fakeAPI{}, &fakeTokens{})
			err = store.SetSession(ctx, usr, "tok")
			if tt.wantRole == "" {
				assert.Equal(t, ErrInvalidSession, err)
				assert.Equal(t, StatusUninitialized, store.Snapshot().Status)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, store.Snapshot().Role)
			}

			// Initialize from a persisted token
			tokens = &fakeTokens{token: "tok"}
			store = newTestStore(&fakeAPI{profiles: map[string]user.User{"tok": usr}}, tokens)
			require.NoError(t, store.Initialize(ctx))
			snap = store.Snapshot()
			checkCoupling(t, snap)
			assert.Equal(t, tt.wantRole, snap.Role)
			if tt.wantRole == "" {
				assert.Equal(t, StatusUnauthenticated, snap.Status)
				assert.Empty(t, tokens.value())
			}
		})
	}
}

func TestStore_Validate_callerCancel(t *testing.T) {
	api := &fakeAPI{
		profiles:    map[string]user.User{"tok": studentA},
		profileGate: make(chan struct{}),
	}
	store := newTestStore(api, &fakeTokens{})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error)
	go func() {
		_, err := store.Validate(ctx, "tok")
		first <- err
	}()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&api.profileCalls) == 1
	}, time.Second, time.Millisecond)

	second := make(chan user.User)
	go func() {
		usr, _ := store.Validate(context.Background(), "tok")
		second <- usr
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	assert.True(t, errors.Is(<-first, context.Canceled))

	close(api.profileGate)
	assert.Equal(t, studentA, <-second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.profileCalls))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{ExpiresAt: exp.Unix()}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	assert.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = TokenExpiry("opaque-token")
	assert.False(t, ok)
	_, ok = TokenExpiry("")
	assert.False(t, ok)
}

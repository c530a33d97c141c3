package echoapi

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/user"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	errInvalidRole     = errors.New("invalid role")
)

type account struct {
	user         user.User
	passwordHash []byte
}

// Accounts is the in-memory user table served by the dev API.
type Accounts struct {
	cost int

	mu      sync.RWMutex
	byID    map[int]*account
	byEmail map[string]*account
	nextID  int
}

// NewAccounts returns an empty table hashing passwords with cost (bcrypt.DefaultCost when 0).
func NewAccounts(cost int) *Accounts {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Accounts{
		cost:    cost,
		byID:    make(map[int]*account),
		byEmail: make(map[string]*account),
		nextID:  1,
	}
}

// Add registers a user with a bcrypt-hashed password.
func (a *Accounts) Add(name, email, password string, role user.Role) (user.User, error) {
	email = core.CleanString(email, true /* lower */)
	if !role.Valid() {
		return user.User{}, errors.Wrap(errInvalidRole, string(role))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return user.User{}, errors.Wrap(err, "hashing password")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byEmail[email]; ok {
		return user.User{}, ErrDuplicateEmail
	}
	acc := &account{
		user:         user.User{ID: a.nextID, Name: strings.TrimSpace(name), Email: email, Role: role},
		passwordHash: hash,
	}
	a.nextID++
	a.byID[acc.user.ID] = acc
	a.byEmail[email] = acc
	return acc.user, nil
}

func (a *Accounts) GetByID(id int) (user.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if acc, ok := a.byID[id]; ok {
		return acc.user, nil
	}
	return user.User{}, ErrAccountNotFound
}

func (a *Accounts) GetByEmail(email string) (user.User, error) {
	acc, err := a.find(email)
	if err != nil {
		return user.User{}, err
	}
	return acc.user, nil
}

// Authenticate returns the user matching email and password. Unknown emails and wrong
// passwords both yield ErrAccountNotFound.
func (a *Accounts) Authenticate(email, password string) (user.User, error) {
	acc, err := a.find(email)
	if err != nil {
		return user.User{}, err
	}
	a.mu.RLock()
	hash := acc.passwordHash
	a.mu.RUnlock()
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return user.User{}, ErrAccountNotFound
	}
	return acc.user, nil
}

// Credentials returns the user for email together with its password hash, which reset
// tokens are bound to.
func (a *Accounts) Credentials(email string) (user.User, []byte, error) {
	acc, err := a.find(email)
	if err != nil {
		return user.User{}, nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return acc.user, append([]byte{}, acc.passwordHash...), nil
}

// SetPassword replaces the password of the account with id.
func (a *Accounts) SetPassword(id int, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.byID[id]
	if !ok {
		return ErrAccountNotFound
	}
	acc.passwordHash = hash
	return nil
}

// All returns every user ordered by ID.
func (a *Accounts) All() []user.User {
	a.mu.RLock()
	users := make([]user.User, 0, len(a.byID))
	for _, acc := range a.byID {
		users = append(users, acc.user)
	}
	a.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (a *Accounts) find(email string) (*account, error) {
	email = core.CleanString(email, true /* lower */)
	a.mu.RLock()
	defer a.mu.RUnlock()
	if acc, ok := a.byEmail[email]; ok {
		return acc, nil
	}
	return nil, ErrAccountNotFound
}

// Seed is a user created on start-up.
type Seed struct {
	Name     string
	Email    string
	Password string
	Role     user.Role
}

// DefaultSeeds has one account per role.
var DefaultSeeds = []Seed{
	{Name: "Student", Email: "student@lms.local", Password: "student123", Role: user.RoleStudent},
	{Name: "Instructor", Email: "instructor@lms.local", Password: "instructor123", Role: user.RoleInstructor},
	{Name: "Admin", Email: "admin@lms.local", Password: "admin123", Role: user.RoleAdmin},
}

// SeedAccounts adds seeds to accts, skipping emails that already exist.
func SeedAccounts(accts *Accounts, seeds []Seed) error {
	for _, s := range seeds {
		if _, err := accts.Add(s.Name, s.Email, s.Password, s.Role); err != nil && err != ErrDuplicateEmail {
			return errors.Wrapf(err, "seeding %s", s.Email)
		}
	}
	return nil
}

// Package directory owns the registered users and the current session.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pointage/internal/auth"
	"pointage/internal/crypto"
	"pointage/internal/errs"
	"pointage/internal/kvstore"
)

// Store keys for the persisted directory state.
const (
	usersKey   = "users"
	sessionKey = "session"
)

// Role of a registered user.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Seeded administrator created on first run.
const (
	AdminMatricule       = "ADMIN001"
	adminDefaultPassword = "admin123"
)

// User is a registered employee or administrator.
type User struct {
	ID           string    `json:"id"`
	Matricule    string    `json:"matricule"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Departement  string    `json:"departement"`
	Metier       string    `json:"metier"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// sessionRecord is the persisted session envelope: the user snapshot taken
// at login time plus a signed token proving the snapshot was written by us.
type sessionRecord struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// RegisterInput carries the fields required to register an employee.
type RegisterInput struct {
	Matricule   string
	Nom         string
	Prenom      string
	Departement string
	Metier      string
	Email       string
	Password    string
}

// Service owns the user collection and the current session. All mutating
// operations are serialized by a mutex and persist before committing to
// memory, so a failed store write leaves the in-memory state untouched.
type Service struct {
	store      kvstore.Store
	log        *zap.Logger
	signKey    string
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	users   []User
	current *User
}

// NewService constructs the directory service. Call Load before use.
func NewService(store kvstore.Store, log *zap.Logger, signKey, issuer string, sessionTTL time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if sessionTTL <= 0 {
		sessionTTL = 30 * 24 * time.Hour
	}
	return &Service{
		store:      store,
		log:        log,
		signKey:    signKey,
		issuer:     issuer,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Load reads the persisted directory and session. On the very first run it
// seeds the default administrator; a persisted collection, even an empty
// one, blocks re-seeding.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(ctx, usersKey)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		if err := s.seedAdmin(ctx); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("directory: load users: %w", err)
	default:
		var users []User
		if err := json.Unmarshal([]byte(raw), &users); err != nil {
			return fmt.Errorf("directory: decode users: %w", err)
		}
		s.users = users
	}

	s.loadSession(ctx)
	s.log.Info("directory loaded", zap.Int("users", len(s.users)), zap.Bool("session", s.current != nil))
	return nil
}

func (s *Service) seedAdmin(ctx context.Context) error {
	hash, err := crypto.HashPassword(adminDefaultPassword)
	if err != nil {
		return fmt.Errorf("directory: seed admin: %w", err)
	}
	admin := User{
		ID:           uuid.NewString(),
		Matricule:    AdminMatricule,
		Nom:          "Admin",
		Prenom:       "Système",
		Departement:  "RH",
		Metier:       "Administrateur",
		Email:        "admin@pointage.local",
		PasswordHash: hash,
		Role:         RoleAdmin,
		CreatedAt:    s.now(),
	}
	if err := s.persistUsers(ctx, []User{admin}); err != nil {
		return err
	}
	s.users = []User{admin}
	s.log.Info("seeded default administrator", zap.String("matricule", AdminMatricule))
	return nil
}

// loadSession restores the persisted session if its signed token verifies
// and still refers to a known matricule. Anything else clears the session.
func (s *Service) loadSession(ctx context.Context) {
	raw, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.log.Warn("session load failed", zap.Error(err))
		}
		return
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Warn("discarding undecodable session", zap.Error(err))
		_ = s.store.Remove(ctx, sessionKey)
		return
	}
	claims, err := auth.Parse(rec.Token, s.signKey, s.issuer)
	if err != nil || claims.Matricule != rec.User.Matricule {
		s.log.Warn("discarding invalid session token", zap.Error(err))
		_ = s.store.Remove(ctx, sessionKey)
		return
	}
	if s.findByMatricule(rec.User.Matricule) == nil {
		s.log.Warn("discarding session for unknown matricule", zap.String("matricule", rec.User.Matricule))
		_ = s.store.Remove(ctx, sessionKey)
		return
	}
	u := rec.User
	s.current = &u
}

// Register adds a new employee to the directory.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	matricule := NormalizeMatricule(in.Matricule)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if matricule == "" || in.Nom == "" || in.Prenom == "" || in.Departement == "" ||
		in.Metier == "" || email == "" || in.Password == "" {
		return User{}, fmt.Errorf("%w: all fields are required", errs.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Matricule == matricule || u.Email == email {
			return User{}, errs.ErrDuplicateIdentity
		}
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("directory: hash password: %w", err)
	}
	user := User{
		ID:           uuid.NewString(),
		Matricule:    matricule,
		Nom:          in.Nom,
		Prenom:       in.Prenom,
		Departement:  in.Departement,
		Metier:       in.Metier,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleEmployee,
		CreatedAt:    s.now(),
	}

	updated := append(append([]User(nil), s.users...), user)
	if err := s.persistUsers(ctx, updated); err != nil {
		return User{}, err
	}
	s.users = updated
	s.log.Info("user registered", zap.String("matricule", matricule), zap.String("departement", user.Departement))
	return user, nil
}

// Login authenticates by matricule and password, sets the session and
// persists it. Unknown matricule and wrong password return the same error.
func (s *Service) Login(ctx context.Context, matricule, password string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findByMatricule(NormalizeMatricule(matricule))
	if u == nil || !crypto.VerifyPassword(password, u.PasswordHash) {
		return User{}, errs.ErrInvalidCredentials
	}

	token, err := auth.Issue(u.Matricule, string(u.Role), s.issuer, s.signKey, s.sessionTTL)
	if err != nil {
		return User{}, fmt.Errorf("directory: issue session token: %w", err)
	}
	snapshot := *u
	raw, err := json.Marshal(sessionRecord{User: snapshot, Token: token})
	if err != nil {
		return User{}, fmt.Errorf("directory: encode session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey, string(raw)); err != nil {
		return User{}, fmt.Errorf("directory: persist session: %w", err)
	}
	s.current = &snapshot
	s.log.Info("login", zap.String("matricule", u.Matricule), zap.String("role", string(u.Role)))
	return snapshot, nil
}

// Logout clears the session. It always succeeds; a failed key removal is
// only logged since the in-memory session is already gone.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.store.Remove(ctx, sessionKey); err != nil {
		s.log.Warn("session key removal failed", zap.Error(err))
	}
}

// CurrentUser returns a copy of the session user, if any. The snapshot is
// taken at login time and never refreshed from the directory.
func (s *Service) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return User{}, false
	}
	return *s.current, true
}

// GetAllUsers returns a copy of the full directory.
func (s *Service) GetAllUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]User(nil), s.users...)
}

func (s *Service) findByMatricule(matricule string) *User {
	for i := range s.users {
		if s.users[i].Matricule == matricule {
			return &s.users[i]
		}
	}
	return nil
}

func (s *Service) persistUsers(ctx context.Context, users []User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("directory: encode users: %w", err)
	}
	if err := s.store.Set(ctx, usersKey, string(raw)); err != nil {
		return fmt.Errorf("directory: persist users: %w", err)
	}
	return nil
}

// NormalizeMatricule uppercases and trims an employee number.
func NormalizeMatricule(matricule string) string {
	return strings.ToUpper(strings.TrimSpace(matricule))
}

package identity

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pulse/internal/models"
	"pulse/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid username or password")
	ErrUsernameTaken      = errors.New("identity: username already taken")
)

const defaultAvatar = "https://images.pexels.com/photos/1851164/pexels-photo-1851164.jpeg?auto=compress&cs=tinysrgb&w=150"

// CredentialChecker decides whether a presented password matches a stored
// hash. It is pluggable so the store does not bake in one policy: the
// server installs BcryptChecker, tests may install AcceptAll.
type CredentialChecker func(hashedPassword, password string) bool

func BcryptChecker(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// AcceptAll approves any password for a known username.
func AcceptAll(string, string) bool { return true }

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// Recorder is the slice of the snapshot store the identity store needs.
type Recorder interface {
	Put(key string, v any) error
	Get(key string, v any) error
	Delete(key string) error
}

// Store owns the roster and the single current-user slot. The roster lives
// in memory only; the current-user record is mirrored to storage so a
// restart restores the session's user verbatim.
type Store struct {
	mu      sync.RWMutex
	persist Recorder
	check   CredentialChecker

	users   []models.User
	creds   map[string]string // user id -> password hash
	current *models.User
}

func New(persist Recorder, check CredentialChecker) *Store {
	if check == nil {
		check = BcryptChecker
	}
	s := &Store{
		persist: persist,
		check:   check,
		creds:   make(map[string]string),
	}
	var u models.User
	err := persist.Get(storage.KeyCurrentUser, &u)
	switch {
	case err == nil:
		s.current = &u
	case errors.Is(err, storage.ErrNoRecord):
	default:
		// A record that no longer decodes is dropped; there is no
		// migration path for old-shape records.
		log.Printf("identity: discarding current-user record: %v", err)
		persist.Delete(storage.KeyCurrentUser)
	}
	return s
}

// AddUser appends an existing user record (seeding). The hash may be empty,
// in which case no password will ever match under BcryptChecker.
func (s *Store) AddUser(u models.User, passwordHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	if passwordHash != "" {
		s.creds[u.ID] = passwordHash
	}
}

// Login scans the roster for the username and delegates the password check
// to the configured CredentialChecker. Unknown username and failed check
// are indistinguishable to the caller.
func (s *Store) Login(username, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != username {
			continue
		}
		if !s.check(s.creds[u.ID], password) {
			return models.User{}, ErrInvalidCredentials
		}
		s.setCurrent(u)
		return u, nil
	}
	return models.User{}, ErrInvalidCredentials
}

// Register appends a new user and logs them in. Username comparison is
// case-sensitive exact match, same as login.
func (s *Store) Register(username, password string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return models.User{}, ErrUsernameTaken
		}
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Avatar:    defaultAvatar,
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	s.users = append(s.users, u)
	s.creds[u.ID] = hash
	s.setCurrent(u)
	return u, nil
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if err := s.persist.Delete(storage.KeyCurrentUser); err != nil {
		log.Printf("identity: clear current-user record: %v", err)
	}
}

// setCurrent replaces the slot and mirrors it. Callers hold the lock.
func (s *Store) setCurrent(u models.User) {
	s.current = &u
	if err := s.persist.Put(storage.KeyCurrentUser, u); err != nil {
		log.Printf("identity: write current-user record: %v", err)
	}
}

func (s *Store) Current() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return models.User{}, false
	}
	return *s.current, true
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *Store) IsAdmin() bool {
	u, ok := s.Current()
	return ok && u.Role == models.RoleAdmin
}

// IsModerator is true for moderators and admins: the admin role subsumes
// moderator for authorization purposes.
func (s *Store) IsModerator() bool {
	u, ok := s.Current()
	return ok && (u.Role == models.RoleModerator || u.Role == models.RoleAdmin)
}

func (s *Store) UserByID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

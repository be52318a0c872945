package auth

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "pulse_session"

type session struct {
	userID  string
	expires time.Time
}

// Manager tracks browser sessions in memory. A session only marks which
// user a cookie belongs to; the identity store remains the authority on
// who is logged in.
type Manager struct {
	mu       sync.Mutex
	maxAge   time.Duration
	sessions map[string]session
}

func NewManager(maxAge time.Duration) *Manager {
	return &Manager{maxAge: maxAge, sessions: make(map[string]session)}
}

func (m *Manager) Create(w http.ResponseWriter, userID string) {
	id := uuid.New().String()
	expires := time.Now().Add(m.maxAge)

	m.mu.Lock()
	m.sessions[id] = session{userID: userID, expires: expires}
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Cookie(sessionCookie)
	if c != nil && c.Value != "" {
		m.mu.Lock()
		delete(m.sessions, c.Value)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
}

func (m *Manager) CurrentUserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[c.Value]
	if !ok {
		return "", false
	}
	if time.Now().After(s.expires) {
		delete(m.sessions, c.Value)
		return "", false
	}
	return s.userID, true
}

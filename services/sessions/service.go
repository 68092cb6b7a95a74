package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"ytfree/models"
)

// CookieName is the session cookie set on login and cleared on logout.
const CookieName = "ytfree_session"

var ErrSessionNotFound = errors.New("session not found")

// Session is one signed-in browser session. Token is nil for the mock
// demo account, which never talks to the Data API.
type Session struct {
	ID        string
	User      models.User
	Token     *oauth2.Token
	ExpiresAt time.Time
}

// Service holds active sessions in memory. Sessions do not survive a
// restart; the client just signs in again.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewService(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session and returns it. The caller sets the
// cookie from the returned ID.
func (s *Service) Create(user models.User, token *oauth2.Token) Session {
	sess := Session{
		ID:        uuid.NewString(),
		User:      user,
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

// Get returns the session for an ID, expiring it lazily.
func (s *Service) Get(id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.now().After(sess.ExpiresAt) {
		s.Delete(id)
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session. Removing an unknown ID is a no-op.
func (s *Service) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one logged-in operator.
type Session struct {
	ID      string
	Subject string
	Expires time.Time
}

// SessionStore keeps live sessions in memory. Sessions do not survive a
// restart.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore returns an empty store issuing sessions that last ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session for subject.
func (s *SessionStore) Create(subject string) (Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	sess := Session{ID: id.String(), Subject: subject, Expires: now.Add(s.ttl)}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns the live session with id. Expired sessions are dropped.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	if !s.now().Before(sess.Expires) {
		delete(s.sessions, id)
		return Session{}, false
	}
	return sess, true
}

// Destroy ends the session with id. Unknown ids are ignored.
func (s *SessionStore) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Active counts sessions that have not expired.
func (s *SessionStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !now.Before(sess.Expires) {
			delete(s.sessions, id)
		}
	}
}

type sessionCtxKey struct{}

func withSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sess)
}

func sessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionCtxKey{}).(Session)
	return sess, ok
}

// SubjectFromContext returns the authenticated operator of a request that
// passed requireSession.
func SubjectFromContext(ctx context.Context) (string, bool) {
	sess, ok := sessionFromContext(ctx)
	if !ok {
		return "", false
	}
	return sess.Subject, true
}

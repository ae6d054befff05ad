package store

import (
	"sync"
	"time"
)

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in-process. Used by tests and local
// runs without Redis.
type MemorySessionStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	sess map[string]memorySession
	now  func() time.Time
}

// NewMemorySessionStore builds an in-memory session store with TTL.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:  ttl,
		sess: make(map[string]memorySession),
		now:  time.Now,
	}
}

// NewSession creates a token -> userID mapping that expires after TTL.
func (s *MemorySessionStore) NewSession(userID string) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess[token] = memorySession{
		userID:    userID,
		expiresAt: s.now().Add(s.ttl),
	}
	return token, nil
}

// GetUserIDByToken resolves token to user ID, dropping expired entries.
func (s *MemorySessionStore) GetUserIDByToken(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sess[token]
	if !ok {
		return "", false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sess, token)
		return "", false, nil
	}
	return entry.userID, true, nil
}

// DeleteSession removes a token mapping.
func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sess, token)
	return nil
}

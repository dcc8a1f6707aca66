package state

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrStateNotFound   = errors.New("call state not found")
	ErrNilSessionState = errors.New("call state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// Store is the persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Call, error)
	Save(ctx context.Context, c *Call) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore keeps calls in process memory. Calls are discarded when they
// end, so nothing outlives the process.
type MemoryStore struct {
	mu    sync.RWMutex
	calls map[string]*Call
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: make(map[string]*Call, 8)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Call, error) {
	id, err := sessionKey(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.calls[id]
	if !ok {
		return nil, ErrStateNotFound
	}
	return c.clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, c *Call) error {
	if c == nil {
		return ErrNilSessionState
	}
	id, err := sessionKey(c.SessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[id] = c.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	id, err := sessionKey(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.calls, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

func sessionKey(sessionID string) (string, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return "", ErrInvalidSession
	}
	return id, nil
}

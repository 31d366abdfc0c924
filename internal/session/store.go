package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/EmpoweredVote/jobmarket/internal/utils"
)

var ErrNotFound = errors.New("session not found")

// Store persists gateway sessions.
type Store interface {
	Create(ctx context.Context, s Session) error
	Find(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// MemoryStore keeps sessions in process memory. Used when no database is
// configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.sessions[s.SessionID] = s
	return nil
}

func (m *MemoryStore) Find(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Fetcher adapts a Store to the session middleware.
type Fetcher struct {
	Store Store
}

func (f Fetcher) FindSessionByID(ctx context.Context, id string) (utils.SessionData, error) {
	s, err := f.Store.Find(ctx, id)
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		SessionID: s.SessionID,
		UserID:    s.UserID,
		Employer:  s.Employer,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	}, nil
}

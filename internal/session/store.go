// Package session tracks one cart and one checkout orchestrator per open
// register session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yogitridirgantara/POS-DR/internal/checkout"
	"github.com/yogitridirgantara/POS-DR/internal/domain"
)

const (
	// SessionTTL is how long an idle session survives before reaping
	SessionTTL = 2 * time.Hour

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 5 * time.Minute
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one operator's open register: an in-memory cart plus the
// orchestrator that will check it out.
type Session struct {
	ID        string
	Cart      *domain.Cart
	Checkout  *checkout.Orchestrator
	CreatedAt time.Time

	lastActive time.Time
}

// MemoryStore keeps sessions in memory and reaps idle ones in the
// background.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	inserter checkout.TransactionInserter

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryStore(inserter checkout.TransactionInserter) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*Session),
		inserter:    inserter,
		stopCleanup: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

func (s *MemoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireSessions()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireSessions drops sessions idle past the TTL. A session that is in the
// middle of a checkout is never reaped.
func (s *MemoryStore) expireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-SessionTTL)
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) && sess.Checkout.State() == checkout.StateIdle {
			delete(s.sessions, id)
		}
	}
}

// Create opens a new session with an empty cart.
func (s *MemoryStore) Create() *Session {
	cart := domain.NewCart()
	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		Cart:       cart,
		Checkout:   checkout.NewOrchestrator(cart, s.inserter),
		CreatedAt:  now,
		lastActive: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session and marks it active.
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastActive = time.Now()
	return sess, nil
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine and waits for it to exit.
func (s *MemoryStore) Close() {
	close(s.stopCleanup)
	s.wg.Wait()
}

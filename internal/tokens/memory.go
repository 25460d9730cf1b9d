package tokens

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps confirmation codes in process memory with expiry. Fits
// single-instance deployments; use the Redis store when state must survive
// restarts.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]memoryCode

	// now is swapped out by tests.
	now func() time.Time
}

type memoryCode struct {
	code      string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory code store. Expired entries are also
// swept by a janitor so abandoned requests do not accumulate.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:   ttl,
		codes: make(map[string]memoryCode),
		now:   time.Now,
	}
	go s.janitor()
	return s
}

// Issue stores a code, overwriting any previous one for the same key.
func (s *MemoryStore) Issue(_ context.Context, userID int64, purpose, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key(userID, purpose)] = memoryCode{code: code, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Redeem consumes the stored code when it matches and has not expired.
func (s *MemoryStore) Redeem(_ context.Context, userID int64, purpose, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(userID, purpose)
	stored, ok := s.codes[k]
	if !ok {
		return false, nil
	}
	if s.now().After(stored.expiresAt) {
		delete(s.codes, k)
		return false, nil
	}
	if stored.code != code {
		return false, nil
	}
	delete(s.codes, k)
	return true, nil
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := s.now()
		for k, c := range s.codes {
			if now.After(c.expiresAt) {
				delete(s.codes, k)
			}
		}
		s.mu.Unlock()
	}
}

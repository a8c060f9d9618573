package session

import (
	"context"
	"sync"
	"time"
)

type memorySession struct {
	values  map[string][]byte
	expires time.Time
}

// MemoryStore keeps sessions in process memory. A janitor goroutine evicts
// expired sessions until Close is called.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
	now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once
}

// NewMemoryStore creates a store whose sessions expire after ttl of inactivity.
// sweep is the eviction interval; zero disables the janitor (expired sessions
// are still hidden from readers).
func NewMemoryStore(ttl, sweep time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	if sweep > 0 {
		go s.janitor(sweep)
	} else {
		close(s.doneCh)
	}
	return s
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// live returns the session if present and not expired. Caller holds mu.
func (s *MemoryStore) live(sessionID string) (*memorySession, bool) {
	sess, ok := s.sessions[sessionID]
	if !ok || !s.now().Before(sess.expires) {
		return nil, false
	}
	return sess, true
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte)
	sess, ok := s.live(sessionID)
	if !ok {
		return out, nil
	}
	for k, v := range sess.values {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, sessionID string, values map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sessionID)
	if !ok {
		sess = &memorySession{values: make(map[string][]byte, len(values))}
		s.sessions[sessionID] = sess
	}
	for k, v := range values {
		sess.values[k] = append([]byte(nil), v...)
	}
	sess.expires = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, sessionID string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sessionID)
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(sess.values, k)
	}
	sess.expires = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(sessionID); !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	<-s.doneCh
	return nil
}

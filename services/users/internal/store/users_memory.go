package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/user-platform/services/users/internal/domain"
)

var errClosed = errors.New("in-memory user store is closed")

// InMemoryUserStore is a development-only implementation. Users are kept in
// insertion order; an update moves the record to the end.
type InMemoryUserStore struct {
	mu     sync.RWMutex
	users  []domain.User
	closed bool
	now    func() time.Time
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{now: func() time.Time { return time.Now().UTC() }}
}

func (s *InMemoryUserStore) GetAll(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, unavailable(errClosed)
	}
	out := make([]domain.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.Clone()
	}
	return out, nil
}

func (s *InMemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return domain.User{}, unavailable(errClosed)
	}
	if i := s.indexByID(id); i >= 0 {
		return s.users[i].Clone(), nil
	}
	return domain.User{}, notFound(MsgUserNotFound)
}

func (s *InMemoryUserStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return domain.User{}, unavailable(errClosed)
	}
	if i := s.indexByEmail(email); i >= 0 {
		return s.users[i].Clone(), nil
	}
	return domain.User{}, notFound(MsgUserNotFound)
}

// Create checks uniqueness and inserts under one write lock, so two
// concurrent creates with the same email cannot both succeed.
func (s *InMemoryUserStore) Create(_ context.Context, c domain.CreateUser) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.User{}, unavailable(errClosed)
	}
	if s.indexByEmail(c.Email) >= 0 {
		return domain.User{}, conflict(MsgUserExists)
	}
	u := c.User(uuid.New(), s.now())
	s.users = append(s.users, u)
	return u, nil
}

func (s *InMemoryUserStore) Update(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.User{}, unavailable(errClosed)
	}
	i := s.indexByID(u.ID)
	if i < 0 {
		return domain.User{}, notFound(MsgUserDoesNotExist)
	}
	if j := s.indexByEmail(u.Email); j >= 0 && j != i {
		return domain.User{}, conflict(MsgUserExists)
	}

	u.CreatedAt = s.users[i].CreatedAt
	now := s.now()
	u.UpdatedAt = &now

	s.users = append(s.users[:i], s.users[i+1:]...)
	s.users = append(s.users, u)
	return u.Clone(), nil
}

func (s *InMemoryUserStore) Delete(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return uuid.Nil, unavailable(errClosed)
	}
	kept := s.users[:0]
	for _, u := range s.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	clear(s.users[len(kept):])
	s.users = kept
	return id, nil
}

// Ping fails once the store is closed.
func (s *InMemoryUserStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return unavailable(errClosed)
	}
	return nil
}

// Close drops all users. Every later call reports storage-unavailable.
func (s *InMemoryUserStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.users = nil
}

func (s *InMemoryUserStore) indexByID(id uuid.UUID) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *InMemoryUserStore) indexByEmail(email string) int {
	for i := range s.users {
		if s.users[i].Email == email {
			return i
		}
	}
	return -1
}

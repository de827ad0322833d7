package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/user-platform/services/users/internal/domain"
)

// Cache is a JSON key/value cache with expiry owned by the implementation.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// CachedUserStore serves GetByID from a read-through cache and keeps the
// cache in step with every mutation. Cache failures are logged and never
// reach the caller.
//
// A miss is written back only if no mutation finished while it was being
// read, so an overlapping Update or Delete cannot leave a stale entry behind.
type CachedUserStore struct {
	next  UserStore
	cache Cache
	log   *zap.Logger

	mu  sync.Mutex // serialises cache writes against gen
	gen uint64     // bumped after every successful mutation
}

func NewCachedUserStore(next UserStore, cache Cache, log *zap.Logger) *CachedUserStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedUserStore{next: next, cache: cache, log: log}
}

func userKey(id uuid.UUID) string { return "users:" + id.String() }

func (s *CachedUserStore) GetAll(ctx context.Context) ([]domain.User, error) {
	return s.next.GetAll(ctx)
}

func (s *CachedUserStore) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	var u domain.User
	hit, err := s.cache.Get(ctx, userKey(id), &u)
	if err != nil {
		s.log.Warn("user cache get failed", zap.Stringer("id", id), zap.Error(err))
	} else if hit {
		return u, nil
	}

	s.mu.Lock()
	seen := s.gen
	s.mu.Unlock()

	u, err = s.next.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == seen {
		s.set(ctx, u)
	}
	return u, nil
}

func (s *CachedUserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.next.GetByEmail(ctx, email)
}

func (s *CachedUserStore) Create(ctx context.Context, c domain.CreateUser) (domain.User, error) {
	u, err := s.next.Create(ctx, c)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.set(ctx, u)
	return u, nil
}

// Update evicts instead of writing the new value: two overlapping updates
// may finish in either order, and the next read repopulates from the store.
func (s *CachedUserStore) Update(ctx context.Context, u domain.User) (domain.User, error) {
	out, err := s.next.Update(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	s.invalidate(ctx, out.ID)
	return out, nil
}

func (s *CachedUserStore) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	out, err := s.next.Delete(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	s.invalidate(ctx, id)
	return out, nil
}

func (s *CachedUserStore) invalidate(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if err := s.cache.Delete(ctx, userKey(id)); err != nil {
		s.log.Warn("user cache delete failed", zap.Stringer("id", id), zap.Error(err))
	}
}

// set must be called with s.mu held.
func (s *CachedUserStore) set(ctx context.Context, u domain.User) {
	if err := s.cache.Set(ctx, userKey(u.ID), u); err != nil {
		s.log.Warn("user cache set failed", zap.Stringer("id", u.ID), zap.Error(err))
	}
}

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/user-platform/internal/platform/events"
	"github.com/example/user-platform/services/users/internal/domain"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

// NotifyingUserStore publishes one lifecycle event after every successful
// mutation. Reads pass straight through.
type NotifyingUserStore struct {
	next UserStore
	pub  EventPublisher
}

func NewNotifyingUserStore(next UserStore, pub EventPublisher) *NotifyingUserStore {
	return &NotifyingUserStore{next: next, pub: pub}
}

func (s *NotifyingUserStore) GetAll(ctx context.Context) ([]domain.User, error) {
	return s.next.GetAll(ctx)
}

func (s *NotifyingUserStore) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.next.GetByID(ctx, id)
}

func (s *NotifyingUserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.next.GetByEmail(ctx, email)
}

func (s *NotifyingUserStore) Create(ctx context.Context, c domain.CreateUser) (domain.User, error) {
	u, err := s.next.Create(ctx, c)
	if err != nil {
		return domain.User{}, err
	}
	s.publish(events.SubjectUserCreated, "user_created", u.ID, map[string]any{"email": u.Email})
	return u, nil
}

func (s *NotifyingUserStore) Update(ctx context.Context, u domain.User) (domain.User, error) {
	out, err := s.next.Update(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	s.publish(events.SubjectUserUpdated, "user_updated", out.ID, map[string]any{"email": out.Email})
	return out, nil
}

func (s *NotifyingUserStore) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	out, err := s.next.Delete(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	s.publish(events.SubjectUserDeleted, "user_deleted", id, nil)
	return out, nil
}

func (s *NotifyingUserStore) publish(subject, name string, id uuid.UUID, props map[string]any) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(subject, name, id.String(), props)
}

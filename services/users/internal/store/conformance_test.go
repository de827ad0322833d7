package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/user-platform/services/users/internal/domain"
)

func newCreateUser(email string) domain.CreateUser {
	return domain.CreateUser{
		Email:      email,
		Name:       "Meu nome",
		BirthDate:  civil.Date{Year: 1977, Month: time.March, Day: 10},
		CustomData: domain.CustomData{Random: 1},
	}
}

// testUserStore runs the behaviour every UserStore must share. newStore must
// return an empty store.
func testUserStore(t *testing.T, newStore func(t *testing.T) UserStore) {
	ctx := context.Background()

	t.Run("CreateAssignsIDAndCreatedAt", func(t *testing.T) {
		s := newStore(t)
		u, err := s.Create(ctx, newCreateUser("teste@teste.com"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.False(t, u.CreatedAt.IsZero())
		assert.Nil(t, u.UpdatedAt)
		assert.Equal(t, "Meu nome", u.Name)
		assert.Equal(t, civil.Date{Year: 1977, Month: time.March, Day: 10}, u.BirthDate)
		assert.Equal(t, int32(1), u.CustomData.Random)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, newCreateUser("round@trip.com"))
		require.NoError(t, err)

		byID, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, byID)

		byEmail, err := s.GetByEmail(ctx, "round@trip.com")
		require.NoError(t, err)
		assert.Equal(t, created, byEmail)

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, created, all[0])
	})

	t.Run("ReturnedUsersAreDetached", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, newCreateUser("detached@teste.com"))
		require.NoError(t, err)

		created.Name = "changed"
		created.Email = "other@teste.com"
		updated, err := s.Update(ctx, created)
		require.NoError(t, err)
		require.NotNil(t, updated.UpdatedAt)
		stamped := *updated.UpdatedAt

		*updated.UpdatedAt = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
		updated.Name = "mutated"

		byID, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, byID.UpdatedAt)
		assert.True(t, byID.UpdatedAt.Equal(stamped))
		assert.Equal(t, "changed", byID.Name)
		assert.False(t, byID.UpdatedAt.Before(byID.CreatedAt))

		*byID.UpdatedAt = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
		byEmail, err := s.GetByEmail(ctx, "other@teste.com")
		require.NoError(t, err)
		assert.True(t, byEmail.UpdatedAt.Equal(stamped))

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		*all[0].UpdatedAt = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
		again, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, again.UpdatedAt.Equal(stamped))
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, newCreateUser("dup@teste.com"))
		require.NoError(t, err)

		_, err = s.Create(ctx, newCreateUser("dup@teste.com"))
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, MsgUserExists, Message(err, ""))
	})

	t.Run("EmailReusableAfterDelete", func(t *testing.T) {
		s := newStore(t)
		u, err := s.Create(ctx, newCreateUser("reuse@teste.com"))
		require.NoError(t, err)

		id, err := s.Delete(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, id)

		_, err = s.GetByID(ctx, u.ID)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetByEmail(ctx, "reuse@teste.com")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.Create(ctx, newCreateUser("reuse@teste.com"))
		require.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t)
		missing := uuid.MustParse("71802ecd-4eb3-4381-af7e-f737e3a35d5d")

		_, err := s.GetByID(ctx, missing)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, MsgUserNotFound, Message(err, ""))

		_, err = s.GetByEmail(ctx, "nobody@teste.com")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.Update(ctx, domain.User{ID: missing, Email: "nobody@teste.com"})
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, MsgUserDoesNotExist, Message(err, ""))
	})

	t.Run("DeleteAbsentSucceeds", func(t *testing.T) {
		s := newStore(t)
		missing := uuid.New()
		id, err := s.Delete(ctx, missing)
		require.NoError(t, err)
		assert.Equal(t, missing, id)
	})

	t.Run("UpdatePreservesCreatedAt", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, newCreateUser("upd@teste.com"))
		require.NoError(t, err)

		change := created
		change.Name = "Outro nome"
		change.CustomData.Random = 42
		change.CreatedAt = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

		updated, err := s.Update(ctx, change)
		require.NoError(t, err)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt), "created_at must survive update")
		require.NotNil(t, updated.UpdatedAt)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
		assert.Equal(t, "Outro nome", updated.Name)
		assert.Equal(t, int32(42), updated.CustomData.Random)

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Outro nome", got.Name)
		require.NotNil(t, got.UpdatedAt)
	})

	t.Run("UpdateOwnEmailDoesNotConflict", func(t *testing.T) {
		s := newStore(t)
		u, err := s.Create(ctx, newCreateUser("own@teste.com"))
		require.NoError(t, err)

		_, err = s.Update(ctx, u)
		require.NoError(t, err)
	})

	t.Run("UpdateToOtherUsersEmailConflicts", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, newCreateUser("first@teste.com"))
		require.NoError(t, err)
		second, err := s.Create(ctx, newCreateUser("second@teste.com"))
		require.NoError(t, err)

		second.Email = "first@teste.com"
		_, err = s.Update(ctx, second)
		require.ErrorIs(t, err, ErrConflict)
	})

	t.Run("GetAll", func(t *testing.T) {
		s := newStore(t)
		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		for i := 0; i < 3; i++ {
			_, err := s.Create(ctx, newCreateUser(fmt.Sprintf("user%d@teste.com", i)))
			require.NoError(t, err)
		}
		all, err = s.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

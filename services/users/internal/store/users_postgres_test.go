package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	err := classify(pgx.ErrNoRows, MsgUserDoesNotExist)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, MsgUserDoesNotExist, Message(err, ""))

	err = classify(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, MsgUserNotFound)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, MsgUserExists, Message(err, ""))

	cause := errors.New("dial tcp: connection refused")
	err = classify(cause, MsgUserNotFound)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = classify(&pgconn.PgError{Code: "42P01"}, MsgUserNotFound)
	require.ErrorIs(t, err, ErrUnavailable)
}

// openTestPool connects to USERS_TEST_DATABASE_URL or skips.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("USERS_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("USERS_TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresUserStore(t *testing.T) {
	pool := openTestPool(t)
	s := NewPostgresUserStore(pool)
	require.NoError(t, s.EnsureSchema(context.Background()))
	// Running it twice must be harmless.
	require.NoError(t, s.EnsureSchema(context.Background()))

	testUserStore(t, func(t *testing.T) UserStore {
		_, err := pool.Exec(context.Background(), `TRUNCATE users`)
		require.NoError(t, err)
		return s
	})
}

func TestPostgresUserStore_UnavailableAfterClose(t *testing.T) {
	pool := openTestPool(t)
	s := NewPostgresUserStore(pool)
	require.NoError(t, s.EnsureSchema(context.Background()))
	pool.Close()

	_, err := s.GetAll(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, s.Ping(context.Background()), ErrUnavailable)
}

package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/user-platform/services/users/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const pgUniqueViolation = "23505"

const userColumns = `id, email, name, birth_date, (custom_data).random, created_at, updated_at`

// PostgresUserStore persists users in Postgres.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStore creates a store backed by Postgres.
func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// EnsureSchema creates the custom_data type, the users table and its email
// index when they do not exist.
func (s *PostgresUserStore) EnsureSchema(ctx context.Context) error {
	// No arguments: pgx sends this over the simple protocol, which accepts
	// several statements.
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *PostgresUserStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *PostgresUserStore) GetAll(ctx context.Context) ([]domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	out := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.User{}, classify(err, MsgUserNotFound)
	}
	return u, nil
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.pool.QueryRow(ctx, q, email))
	if err != nil {
		return domain.User{}, classify(err, MsgUserNotFound)
	}
	return u, nil
}

// Create pre-checks the email so the common conflict is reported without a
// failed insert. The unique index still decides concurrent races.
func (s *PostgresUserStore) Create(ctx context.Context, c domain.CreateUser) (domain.User, error) {
	if _, err := s.GetByEmail(ctx, c.Email); err == nil {
		return domain.User{}, conflict(MsgUserExists)
	} else if !errors.Is(err, ErrNotFound) {
		return domain.User{}, err
	}

	const q = `INSERT INTO users (id, email, name, birth_date, custom_data)
	           VALUES ($1, $2, $3, $4, ROW($5)::custom_data)
	           RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, q, uuid.New(), c.Email, c.Name, dateArg(c.BirthDate), c.CustomData.Random)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, classify(err, MsgUserNotFound)
	}
	return u, nil
}

func (s *PostgresUserStore) Update(ctx context.Context, u domain.User) (domain.User, error) {
	if _, err := s.GetByID(ctx, u.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.User{}, notFound(MsgUserDoesNotExist)
		}
		return domain.User{}, err
	}
	if other, err := s.GetByEmail(ctx, u.Email); err == nil && other.ID != u.ID {
		return domain.User{}, conflict(MsgUserExists)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return domain.User{}, err
	}

	const q = `UPDATE users
	           SET email = $2, name = $3, birth_date = $4, custom_data = ROW($5)::custom_data, updated_at = now()
	           WHERE id = $1
	           RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, q, u.ID, u.Email, u.Name, dateArg(u.BirthDate), u.CustomData.Random)
	out, err := scanUser(row)
	if err != nil {
		// Zero rows here means the user was deleted after the pre-check.
		return domain.User{}, classify(err, MsgUserDoesNotExist)
	}
	return out, nil
}

func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const q = `DELETE FROM users WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return uuid.Nil, unavailable(err)
	}
	return id, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u     domain.User
		birth time.Time
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &birth, &u.CustomData.Random, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	u.BirthDate = civil.DateOf(birth)
	u.CreatedAt = u.CreatedAt.UTC()
	if u.UpdatedAt != nil {
		t := u.UpdatedAt.UTC()
		u.UpdatedAt = &t
	}
	return u, nil
}

func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

// classify maps driver errors onto the store error kinds. Zero rows become
// not-found with the given message, a unique violation becomes conflict and
// everything else is storage-unavailable.
func classify(err error, notFoundMsg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(notFoundMsg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return conflict(MsgUserExists)
	}
	return unavailable(err)
}

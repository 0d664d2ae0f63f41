// Package repo persists operator sessions for the villa admin console.
// Each store has an interface, a Postgres implementation, and an in-memory
// implementation used when no database is configured.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/villa-admin/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepo defines the persistence operations for operator sessions.
type SessionRepo interface {
	// Create stores a new session record.
	Create(ctx context.Context, s domain.Session) error

	// Get returns the session with the given marker.
	// Returns domain.ErrNotFound if no such session exists.
	Get(ctx context.Context, id string) (domain.Session, error)

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, id string) error
}

// pgSessionRepo is the Postgres implementation of SessionRepo.
type pgSessionRepo struct {
	db db
}

// NewSessionRepo constructs a SessionRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSessionRepo(db db) SessionRepo {
	return &pgSessionRepo{db: db}
}

// Create inserts a session row. The marker must be a UUID.
func (r *pgSessionRepo) Create(ctx context.Context, s domain.Session) error {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return fmt.Errorf("repo.SessionRepo.Create: %w: session id is not a uuid", domain.ErrValidation)
	}

	const q = `
		INSERT INTO admin_sessions (id, token, username, created_at)
		VALUES (@id, @token, @username, @created_at)`

	args := pgx.NamedArgs{
		"id":         id,
		"token":      s.Token,
		"username":   s.Username,
		"created_at": s.CreatedAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.SessionRepo.Create: %w", err)
	}
	return nil
}

// Get retrieves a session by marker. A marker that is not a UUID cannot
// name a row and is reported as not found without a query.
func (r *pgSessionRepo) Get(ctx context.Context, marker string) (domain.Session, error) {
	id, err := uuid.Parse(marker)
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.Get: %w", domain.ErrNotFound)
	}

	const q = `
		SELECT id, token, username, created_at
		FROM admin_sessions
		WHERE id = @id`

	var (
		s     domain.Session
		rowID pgtype.UUID
	)
	err = r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&rowID, &s.Token, &s.Username, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, fmt.Errorf("repo.SessionRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.Get: %w", err)
	}
	s.ID = uuid.UUID(rowID.Bytes).String()
	return s, nil
}

// Delete removes a session row by marker. Unknown or malformed markers are
// a no-op.
func (r *pgSessionRepo) Delete(ctx context.Context, marker string) error {
	id, err := uuid.Parse(marker)
	if err != nil {
		return nil
	}

	const q = `DELETE FROM admin_sessions WHERE id = @id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", err)
	}
	return nil
}

// memSessionRepo keeps sessions in process memory. Sessions do not survive
// a restart.
type memSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewMemorySessionRepo constructs an in-memory SessionRepo.
func NewMemorySessionRepo() SessionRepo {
	return &memSessionRepo{sessions: map[string]domain.Session{}}
}

func (r *memSessionRepo) Create(_ context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.Get: %w", domain.ErrNotFound)
	}
	return s, nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts query execution; satisfied by *pgxpool.Pool and pgx.Tx
// so every repository works both standalone and inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories and provides transaction scoping. The
// workload read-select-increment plus task creation must run inside a single
// InTx scope so that counters stay authoritative under concurrent submissions.
type Store interface {
	Users() UserRepository
	Staff() StaffRepository
	Workload() WorkloadRepository
	Jobs() JobRepository
	KYC() KYCRepository
	Tasks() TaskRepository
	Notifications() NotificationRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgxStore struct {
	db   Querier
	pool *pgxpool.Pool // nil when already transaction-scoped
}

// NewStore builds a pgx-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgxStore{db: pool, pool: pool}
}

func (s *pgxStore) Users() UserRepository                 { return NewUserRepository(s.db) }
func (s *pgxStore) Staff() StaffRepository                { return NewStaffRepository(s.db) }
func (s *pgxStore) Workload() WorkloadRepository          { return NewWorkloadRepository(s.db) }
func (s *pgxStore) Jobs() JobRepository                   { return NewJobRepository(s.db) }
func (s *pgxStore) KYC() KYCRepository                    { return NewKYCRepository(s.db) }
func (s *pgxStore) Tasks() TaskRepository                 { return NewTaskRepository(s.db) }
func (s *pgxStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }

// InTx runs fn inside a database transaction, rolling back on error.
// Nested calls reuse the enclosing transaction.
func (s *pgxStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	txStore := &pgxStore{db: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

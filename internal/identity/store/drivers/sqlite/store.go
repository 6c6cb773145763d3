package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "modernc.org/sqlite"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
)

const dialect = "sqlite3"

const (
	usersTable       = "user"
	workspacesTable  = "workspace"
	membershipsTable = "user_workspace"
	invitationsTable = "workspace_invitation"
	outboxTable      = "outbox"
)

// builder is the subset of goqu shared by *goqu.Database and *goqu.TxDatabase,
// so repos run unchanged inside and outside a transaction.
type builder interface {
	From(from ...any) *goqu.SelectDataset
	Insert(table any) *goqu.InsertDataset
	Update(table any) *goqu.UpdateDataset
	Delete(table any) *goqu.DeleteDataset
}

// queries bundles what every repo needs: the builder plus the options used
// to restore aggregates.
type queries struct {
	b    builder
	opts []domain.Option
}

func (q *queries) from(table string) *goqu.SelectDataset {
	return q.b.From(table).Prepared(true)
}

func (q *queries) insert(table string) *goqu.InsertDataset {
	return q.b.Insert(table).Prepared(true)
}

func (q *queries) update(table string) *goqu.UpdateDataset {
	return q.b.Update(table).Prepared(true)
}

func (q *queries) delete(table string) *goqu.DeleteDataset {
	return q.b.Delete(table).Prepared(true)
}

type Store struct {
	db  *sql.DB
	q   *queries
	dsn string
}

// NewStore opens the database at dsn. The options are applied to every
// aggregate the store restores, which is how a test clock reaches loaded
// entities.
func NewStore(dsn string, opts ...domain.Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// Every connection to an in-memory database sees its own empty schema.
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}

	// Enforce FKs
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   &queries{b: goqu.Dialect(dialect).DB(db), opts: opts},
		dsn: dsn,
	}, nil
}

func isMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin tx: %w", err)
	}
	return newTx(tx, s.q.opts), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit tx: %w", err)
	}
	return nil
}

func (s *Store) Users() store.Users             { return &usersRepo{q: s.q} }
func (s *Store) Workspaces() store.Workspaces   { return &workspacesRepo{q: s.q} }
func (s *Store) Memberships() store.Memberships { return &membershipsRepo{q: s.q} }
func (s *Store) Invitations() store.Invitations { return &invitationsRepo{q: s.q} }
func (s *Store) Outbox() store.Outbox           { return &outboxRepo{q: s.q} }

func mapNotFound(found bool, err error) error {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	return nil
}

// mapWriteErr turns driver constraint errors into store sentinels.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", store.ErrAlreadyExists, err.Error())
	}
	return err
}

// requireAffected reports ErrNotFound when an update matched no live row.
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func live() goqu.Expression { return goqu.I("deleted_at").IsNull() }

package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/thawee/SmartTomcat/internal/core/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
//
// The pool is limited to one connection: SQLite admits a single writer,
// and an in-memory database exists per connection.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Workspace Item Operations
// =============================================================================

func (s *SQLiteStore) CreateWorkspaceItem(ctx context.Context, item *domain.WorkspaceItem) error {
	return createWorkspaceItem(ctx, s.db, item)
}

func (s *SQLiteStore) GetWorkspaceItem(ctx context.Context, name string) (*domain.WorkspaceItem, error) {
	return getWorkspaceItem(ctx, s.db, name)
}

func (s *SQLiteStore) FindWorkspaceItemByContentRoot(ctx context.Context, root string) (*domain.WorkspaceItem, error) {
	return findWorkspaceItemByContentRoot(ctx, s.db, root)
}

func (s *SQLiteStore) UpdateWorkspaceItem(ctx context.Context, item *domain.WorkspaceItem) error {
	return updateWorkspaceItem(ctx, s.db, item)
}

func (s *SQLiteStore) ListWorkspaceItems(ctx context.Context, opts ListOptions) ([]domain.WorkspaceItem, error) {
	return listWorkspaceItems(ctx, s.db, opts)
}

func (s *SQLiteStore) WorkspaceItemNames(ctx context.Context, base string) ([]string, error) {
	return workspaceItemNames(ctx, s.db, base)
}

func (s *SQLiteStore) OpenItemModel(ctx context.Context, name string) (*ItemModel, error) {
	return openItemModel(ctx, s.db, name)
}

// =============================================================================
// Global Library Operations
// =============================================================================

func (s *SQLiteStore) GetGlobalLibrary(ctx context.Context, name string) (*domain.LibrarySet, error) {
	return getGlobalLibrary(ctx, s.db, name)
}

func (s *SQLiteStore) ReplaceGlobalLibrary(ctx context.Context, set domain.LibrarySet) error {
	return replaceGlobalLibrary(ctx, s.db, set)
}

// =============================================================================
// Run Profile Operations
// =============================================================================

func (s *SQLiteStore) FindProfile(ctx context.Context, key domain.ProfileKey) (*domain.RunProfile, error) {
	return findProfile(ctx, s.db, key)
}

// RegisterProfile inserts the profile and its webapps atomically.
func (s *SQLiteStore) RegisterProfile(ctx context.Context, profile *domain.RunProfile) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.RegisterProfile(ctx, profile)
	})
}

// SaveProfile rewrites the profile and its webapps atomically.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile *domain.RunProfile) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.SaveProfile(ctx, profile)
	})
}

func (s *SQLiteStore) SelectProfile(ctx context.Context, key domain.ProfileKey) error {
	return selectProfile(ctx, s.db, key)
}

func (s *SQLiteStore) SelectedProfile(ctx context.Context) (*domain.RunProfile, error) {
	return selectedProfile(ctx, s.db)
}

func (s *SQLiteStore) ListProfiles(ctx context.Context, opts ListOptions) ([]domain.RunProfile, error) {
	return listProfiles(ctx, s.db, opts)
}

// =============================================================================
// Server Operations
// =============================================================================

func (s *SQLiteStore) CreateServer(ctx context.Context, server domain.ServerInfo) error {
	return createServer(ctx, s.db, server)
}

func (s *SQLiteStore) GetServer(ctx context.Context, name string) (*domain.ServerInfo, error) {
	return getServer(ctx, s.db, name)
}

func (s *SQLiteStore) ListServers(ctx context.Context) ([]domain.ServerInfo, error) {
	return listServers(ctx, s.db)
}

// =============================================================================
// Transaction Support
// =============================================================================

// WithTx runs fn inside a transaction. The Store passed to fn must be used
// for every call inside fn; the outer store would block on the single
// connection.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateWorkspaceItem(ctx context.Context, item *domain.WorkspaceItem) error {
	return createWorkspaceItem(ctx, s.tx, item)
}

func (s *txSQLiteStore) GetWorkspaceItem(ctx context.Context, name string) (*domain.WorkspaceItem, error) {
	return getWorkspaceItem(ctx, s.tx, name)
}

func (s *txSQLiteStore) FindWorkspaceItemByContentRoot(ctx context.Context, root string) (*domain.WorkspaceItem, error) {
	return findWorkspaceItemByContentRoot(ctx, s.tx, root)
}

func (s *txSQLiteStore) UpdateWorkspaceItem(ctx context.Context, item *domain.WorkspaceItem) error {
	return updateWorkspaceItem(ctx, s.tx, item)
}

func (s *txSQLiteStore) ListWorkspaceItems(ctx context.Context, opts ListOptions) ([]domain.WorkspaceItem, error) {
	return listWorkspaceItems(ctx, s.tx, opts)
}

func (s *txSQLiteStore) WorkspaceItemNames(ctx context.Context, base string) ([]string, error) {
	return workspaceItemNames(ctx, s.tx, base)
}

func (s *txSQLiteStore) OpenItemModel(ctx context.Context, name string) (*ItemModel, error) {
	return openItemModel(ctx, s.tx, name)
}

func (s *txSQLiteStore) GetGlobalLibrary(ctx context.Context, name string) (*domain.LibrarySet, error) {
	return getGlobalLibrary(ctx, s.tx, name)
}

func (s *txSQLiteStore) ReplaceGlobalLibrary(ctx context.Context, set domain.LibrarySet) error {
	return replaceGlobalLibrary(ctx, s.tx, set)
}

func (s *txSQLiteStore) FindProfile(ctx context.Context, key domain.ProfileKey) (*domain.RunProfile, error) {
	return findProfile(ctx, s.tx, key)
}

func (s *txSQLiteStore) RegisterProfile(ctx context.Context, profile *domain.RunProfile) error {
	return registerProfile(ctx, s.tx, profile)
}

func (s *txSQLiteStore) SaveProfile(ctx context.Context, profile *domain.RunProfile) error {
	return saveProfile(ctx, s.tx, profile)
}

func (s *txSQLiteStore) SelectProfile(ctx context.Context, key domain.ProfileKey) error {
	return selectProfile(ctx, s.tx, key)
}

func (s *txSQLiteStore) SelectedProfile(ctx context.Context) (*domain.RunProfile, error) {
	return selectedProfile(ctx, s.tx)
}

func (s *txSQLiteStore) ListProfiles(ctx context.Context, opts ListOptions) ([]domain.RunProfile, error) {
	return listProfiles(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CreateServer(ctx context.Context, server domain.ServerInfo) error {
	return createServer(ctx, s.tx, server)
}

func (s *txSQLiteStore) GetServer(ctx context.Context, name string) (*domain.ServerInfo, error) {
	return getServer(ctx, s.tx, name)
}

func (s *txSQLiteStore) ListServers(ctx context.Context) ([]domain.ServerInfo, error) {
	return listServers(ctx, s.tx)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/dbx"
	"github.com/dmitrijs2005/gophdiary/internal/filex"
	"github.com/dmitrijs2005/gophdiary/internal/storage/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// repository implements Store over a DBTX, so the same code serves both
// *sql.DB and *sql.Tx.
type repository struct {
	db dbx.DBTX
}

// SQLiteStore is the SQLite-backed Store.
type SQLiteStore struct {
	repository
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at dsn. It does not
// create the collections; call InitializeSchema for that.
func Open(ctx context.Context, dsn string) (*SQLiteStore, error) {
	if _, err := filex.EnsureParentDir(dsn); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", common.ErrStorageUnavailable, err)
	}
	if !filex.IsFileDSN(dsn) {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w: %w", common.ErrStorageUnavailable, err)
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already opened database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{repository: repository{db: db}, db: db}
}

// InitializeSchema applies pending migrations. Running it again is a no-op.
func (s *SQLiteStore) InitializeSchema(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("failed to initialize schema: %w: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

// WithTx runs fn against a transactional Store. fn's error rolls everything back.
func (s *SQLiteStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &repository{db: tx})
	})
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (r *repository) Put(ctx context.Context, c Collection, key string, value []byte) error {
	if err := c.Validate(); err != nil {
		return err
	}
	query := `INSERT INTO ` + string(c) + ` (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put %s[%s]: %w: %w", c, key, common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, c Collection, key string) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM `+string(c)+` WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s[%s]: %w", c, key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w: %w", c, key, common.ErrStorageUnavailable, err)
	}
	return value, nil
}

func (r *repository) List(ctx context.Context, c Collection) ([]Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM `+string(c)+` ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w: %w", c, common.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.Value); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w: %w", c, common.ErrStorageUnavailable, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w: %w", c, common.ErrStorageUnavailable, err)
	}
	return result, nil
}

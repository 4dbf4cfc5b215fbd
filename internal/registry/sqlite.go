package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/fecaudit/fecaudit/internal/common"
)

// SQLiteRegistry stores the model registry in a SQLite database, for
// deployments where several tools share the registry on one host.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens (and if needed migrates) a SQLite-backed registry.
func NewSQLiteRegistry(dbPath string) (*SQLiteRegistry, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: registry database path is required", common.ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping registry database: %w", err)
	}

	r := &SQLiteRegistry{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close closes the underlying database.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func (r *SQLiteRegistry) migrate() error {
	_, err := r.db.Exec(`CREATE TABLE IF NOT EXISTS models (
		version TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		files TEXT NOT NULL,
		metrics TEXT,
		metadata TEXT,
		is_active INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("failed to migrate registry schema: %w", err)
	}
	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_models_active ON models(is_active)`)
	if err != nil {
		return fmt.Errorf("failed to migrate registry schema: %w", err)
	}
	return nil
}

// Register implements Registry.
func (r *SQLiteRegistry) Register(ctx context.Context, rec Record) error {
	files, err := json.Marshal(rec.Files)
	if err != nil {
		return fmt.Errorf("failed to encode artifact paths: %w", err)
	}
	metrics, err := json.Marshal(rec.Metrics)
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO models (version, created_at, files, metrics, metadata, is_active)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		rec.Version, createdAt, string(files), string(metrics), string(metadata))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", common.ErrDuplicateModel, rec.Version)
		}
		return fmt.Errorf("failed to register model: %w", err)
	}
	return nil
}

// SetActive implements Registry.
func (r *SQLiteRegistry) SetActive(ctx context.Context, version string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE models SET is_active = 1 WHERE version = ?`, version)
	if err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("model version %s: %w", version, common.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE models SET is_active = 0 WHERE version != ?`, version); err != nil {
		return fmt.Errorf("failed to deactivate previous models: %w", err)
	}

	return tx.Commit()
}

// Get implements Registry.
func (r *SQLiteRegistry) Get(ctx context.Context, version string) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT version, created_at, files, metrics, metadata, is_active
		 FROM models WHERE version = ?`, version)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model version %s: %w", version, common.ErrNotFound)
	}
	return rec, err
}

// Active implements Registry.
func (r *SQLiteRegistry) Active(ctx context.Context) (*Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT version, created_at, files, metrics, metadata, is_active
		 FROM models WHERE is_active = 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNoActiveModel
	}
	return rec, err
}

// List implements Registry.
func (r *SQLiteRegistry) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT version, created_at, files, metrics, metadata, is_active
		 FROM models ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var files, metrics, metadata string
	var active int

	if err := row.Scan(&rec.Version, &rec.CreatedAt, &files, &metrics, &metadata, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan model record: %w", err)
	}

	if err := json.Unmarshal([]byte(files), &rec.Files); err != nil {
		return nil, fmt.Errorf("%w: artifact paths: %v", common.ErrCorruptRegistry, err)
	}
	if metrics != "" && metrics != "null" {
		if err := json.Unmarshal([]byte(metrics), &rec.Metrics); err != nil {
			return nil, fmt.Errorf("%w: metrics: %v", common.ErrCorruptRegistry, err)
		}
	}
	if metadata != "" && metadata != "null" {
		if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", common.ErrCorruptRegistry, err)
		}
	}
	rec.Active = active == 1

	return &rec, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chairside/pmsflow/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements service.StateStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite-backed state store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("dbPath cannot be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetProcessingFlag returns the stored flag for a domain, or nil when none
// is set.
func (s *SQLiteStore) GetProcessingFlag(ctx context.Context, domain string) (*service.ProcessingFlag, error) {
	if err := validateDomain(domain); err != nil {
		return nil, err
	}

	var uploadedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT uploaded_at FROM processing_flags WHERE domain = ?`, domain,
	).Scan(&uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read processing flag: %w", err)
	}

	return &service.ProcessingFlag{Domain: domain, UploadedAt: uploadedAt}, nil
}

// SetProcessingFlag records an upload timestamp for a domain, replacing any
// previous value.
func (s *SQLiteStore) SetProcessingFlag(ctx context.Context, domain string, uploadedAt time.Time) error {
	if err := validateDomain(domain); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_flags (domain, uploaded_at) VALUES (?, ?)
		 ON CONFLICT(domain) DO UPDATE SET uploaded_at = excluded.uploaded_at`,
		domain, uploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save processing flag: %w", err)
	}
	return nil
}

// ClearProcessingFlag removes the flag for a domain. Clearing a flag that is
// not set is not an error.
func (s *SQLiteStore) ClearProcessingFlag(ctx context.Context, domain string) error {
	if err := validateDomain(domain); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM processing_flags WHERE domain = ?`, domain); err != nil {
		return fmt.Errorf("failed to clear processing flag: %w", err)
	}
	return nil
}

// GetSetupProgress returns the recorded setup steps for a domain. A domain
// with no recorded steps gets an empty progress, not an error.
func (s *SQLiteStore) GetSetupProgress(ctx context.Context, domain string) (*service.SetupProgress, error) {
	if err := validateDomain(domain); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, done, updated_at FROM setup_progress WHERE domain = ?`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup progress: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	progress := &service.SetupProgress{
		Domain: domain,
		Steps:  make(map[string]bool),
	}
	for rows.Next() {
		var step string
		var done bool
		var updatedAt time.Time
		if err := rows.Scan(&step, &done, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setup step: %w", err)
		}
		progress.Steps[step] = done
		if updatedAt.After(progress.UpdatedAt) {
			progress.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate setup steps: %w", err)
	}

	return progress, nil
}

// SetSetupStep upserts one step's completion state.
func (s *SQLiteStore) SetSetupStep(ctx context.Context, domain, step string, done bool) error {
	if err := validateDomain(domain); err != nil {
		return err
	}
	if step == "" {
		return errors.New("step cannot be empty")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO setup_progress (domain, step, done, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain, step) DO UPDATE SET done = excluded.done, updated_at = excluded.updated_at`,
		domain, step, done, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save setup step: %w", err)
	}
	return nil
}

func validateDomain(domain string) error {
	if domain == "" {
		return errors.New("domain cannot be empty")
	}
	return nil
}

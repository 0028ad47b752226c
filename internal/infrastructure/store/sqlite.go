package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stylelens/backend/internal/domain"
)

// SQLiteStore persists extraction records and their token-usage counts.
// Monetary cost is computed by the external accounting layer; this store
// only keeps the raw usage units it needs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and initializes
// the schema
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized in SQLite anyway; keep the pool small
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS extractions (
			id               TEXT PRIMARY KEY,
			category         TEXT NOT NULL,
			department       TEXT NOT NULL DEFAULT '',
			result_json      TEXT NOT NULL,
			prompt_units     INTEGER NOT NULL DEFAULT 0,
			completion_units INTEGER NOT NULL DEFAULT 0,
			source           TEXT NOT NULL DEFAULT 'Vision',
			created_at       TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);
		CREATE INDEX IF NOT EXISTS idx_extractions_category ON extractions(category);
	`)
	return err
}

// Save inserts one completed extraction record
func (s *SQLiteStore) Save(ctx context.Context, record *domain.ExtractionRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidRequest
	}

	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extractions (id, category, department, result_json, prompt_units, completion_units, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.CategoryLabel, record.DepartmentLabel, string(resultJSON),
		record.Usage.PromptUnits, record.Usage.CompletionUnits, record.Source, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert extraction: %w", err)
	}
	return nil
}

// GetByID retrieves one stored extraction record
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*domain.ExtractionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, department, result_json, prompt_units, completion_units, source, created_at
		FROM extractions WHERE id = ?`, id)

	var record domain.ExtractionRecord
	var resultJSON string
	err := row.Scan(&record.ID, &record.CategoryLabel, &record.DepartmentLabel, &resultJSON,
		&record.Usage.PromptUnits, &record.Usage.CompletionUnits, &record.Source, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction: %w", err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to decode stored result: %w", err)
	}
	record.Result = &result
	return &record, nil
}

// UsageSummary aggregates stored token usage since the given time
func (s *SQLiteStore) UsageSummary(ctx context.Context, since time.Time) (*domain.UsageSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(prompt_units), 0), COALESCE(SUM(completion_units), 0)
		FROM extractions WHERE created_at >= ?`, since)

	var summary domain.UsageSummary
	if err := row.Scan(&summary.Extractions, &summary.PromptUnits, &summary.CompletionUnits); err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	return &summary, nil
}

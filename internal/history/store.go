// Package history persists calculations a user explicitly chose to save.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/calcsite/internal/calculator"
	"github.com/iwvelando/calcsite/pkg/constants"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one saved calculation.
type Entry struct {
	ID           string            `json:"id"`
	CalculatorID string            `json:"calculatorId"`
	Locale       string            `json:"locale"`
	Label        string            `json:"label,omitempty"`
	Values       map[string]any    `json:"values"`
	FieldUnits   map[string]string `json:"fieldUnits,omitempty"`
	Result       calculator.Result `json:"result"`
	CreatedAt    time.Time         `json:"createdAt"`
}

type storedInput struct {
	Values     map[string]any    `json:"values"`
	FieldUnits map[string]string `json:"fieldUnits,omitempty"`
}

// Store is a SQLite backed history.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the database at path and applies pending
// migrations. ":memory:" opens a private in-memory database.
func Open(ctx context.Context, logger *zap.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure history database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("opened history store",
		zap.String("op", "history.Open"),
		zap.String("path", path),
	)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// migrate applies every embedded migration not yet recorded in
// schema_migrations, in file name order. A file may hold several statements
// separated by "-- migrate" lines.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		base := filepath.Base(name)
		var applied int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, base).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", base, err)
		}
		if applied > 0 {
			continue
		}

		ddl, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", base, err)
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", base, err)
		}
		for _, stmt := range strings.Split(string(ddl), "-- migrate") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("error executing migration %s [%s]: %w", base, stmt, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			base, time.Now().Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", base, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", base, err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a valid calculation and returns it with its id and creation
// time set.
func (s *Store) Save(ctx context.Context, entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.CalculatorID) == "" {
		return Entry{}, fmt.Errorf("history entry has no calculator id")
	}
	if !entry.Result.IsValid {
		return Entry{}, fmt.Errorf("refusing to save an invalid result for %s", entry.CalculatorID)
	}
	if entry.Locale == "" {
		entry.Locale = constants.DefaultLocale
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	input, err := json.Marshal(storedInput{Values: entry.Values, FieldUnits: entry.FieldUnits})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode input: %w", err)
	}
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, calculator_id, locale, label, input_json, result_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CalculatorID, entry.Locale, entry.Label, string(input), string(result), entry.CreatedAt.UnixMilli())
	if err != nil {
		return Entry{}, fmt.Errorf("failed to save history entry: %w", err)
	}

	s.logger.Debug("saved history entry",
		zap.String("op", "history.Save"),
		zap.String("id", entry.ID),
		zap.String("calculator", entry.CalculatorID),
	)
	return entry, nil
}

const selectEntry = `SELECT id, calculator_id, locale, label, input_json, result_json, created_at FROM entries`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry   Entry
		input   string
		result  string
		created int64
	)
	if err := row.Scan(&entry.ID, &entry.CalculatorID, &entry.Locale, &entry.Label, &input, &result, &created); err != nil {
		return Entry{}, err
	}
	var stored storedInput
	if err := json.Unmarshal([]byte(input), &stored); err != nil {
		return Entry{}, fmt.Errorf("failed to decode input of %s: %w", entry.ID, err)
	}
	if err := json.Unmarshal([]byte(result), &entry.Result); err != nil {
		return Entry{}, fmt.Errorf("failed to decode result of %s: %w", entry.ID, err)
	}
	entry.Values = stored.Values
	entry.FieldUnits = stored.FieldUnits
	entry.CreatedAt = time.UnixMilli(created).UTC()
	return entry, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load history entry: %w", err)
	}
	return entry, nil
}

// List returns the newest entries first, optionally restricted to one
// calculator. A non-positive limit uses the default limit.
func (s *Store) List(ctx context.Context, calculatorID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}

	query := selectEntry
	args := []any{}
	if calculatorID != "" {
		query += ` WHERE calculator_id = ?`
		args = append(args, calculatorID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Debug("deleted history entry",
		zap.String("op", "history.Delete"),
		zap.String("id", id),
	)
	return nil
}

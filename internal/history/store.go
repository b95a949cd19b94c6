// Package history records finished runs in a SQLite database so past
// outcomes can be listed from the CLI.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// DefaultLimit is the number of runs List returns when no limit is given.
const DefaultLimit = 20

// Run is one recorded pipeline run.
type Run struct {
	RunID     string
	Operation string
	Start     time.Time
	Duration  time.Duration
	Outcome   string
	Revision  string
	Error     string
	Artifacts int
	// Report is the full serialized run report.
	Report json.RawMessage
}

// Store persists run summaries in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "create history directory").WithFile(path).Build()
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "open history database").WithFile(path).Build()
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryHistory, "initialize history schema").WithFile(path).Build()
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		operation TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		revision TEXT,
		error TEXT,
		artifacts INTEGER NOT NULL,
		report BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RunCompleted stores a finished run report.
func (s *Store) RunCompleted(ctx context.Context, report *models.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(report.SanitizedCopy())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal run report").Build()
	}
	msgs := make([]string, 0, len(report.Errors))
	for _, e := range report.Errors {
		msgs = append(msgs, e.Error())
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, operation, started_at, duration_ms, outcome, revision, error, artifacts, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Operation, report.Start.UnixMilli(), report.Duration().Milliseconds(),
		string(report.Outcome), report.Revision, strings.Join(msgs, "; "), len(report.Artifacts), payload,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "insert run").WithContext("run_id", report.RunID).Build()
	}
	return nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, operation, started_at, duration_ms, outcome, revision, error, artifacts, report
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "query runs").Build()
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                   Run
			startedMS, duration int64
			revision, errText   sql.NullString
			report              []byte
		)
		if err := rows.Scan(&r.RunID, &r.Operation, &startedMS, &duration, &r.Outcome, &revision, &errText, &r.Artifacts, &report); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "scan run").Build()
		}
		r.Start = time.UnixMilli(startedMS)
		r.Duration = time.Duration(duration) * time.Millisecond
		r.Revision = revision.String
		r.Error = errText.String
		r.Report = report
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "iterate runs").Build()
	}
	return runs, nil
}

// String renders a one-line summary of r.
func (r Run) String() string {
	s := fmt.Sprintf("%s  %-13s %-8s %8s  %s", r.Start.Format(time.DateTime), r.Operation, r.Outcome,
		r.Duration.Truncate(time.Millisecond), r.RunID)
	if r.Revision != "" {
		s += "  " + r.Revision
	}
	return s
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sprintdeck/sprintdeck/internal/burndown"
)

const dayFormat = "2006-01-02"

// SQLiteStore provides SQLite-based burndown series storage.
type SQLiteStore struct {
	db *sqlx.DB
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database file and ensures the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS burndown_points (
		project_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		day TEXT NOT NULL,
		ideal INTEGER NOT NULL,
		actual INTEGER,
		PRIMARY KEY (project_id, actor_id, day)
	);
	CREATE INDEX IF NOT EXISTS idx_burndown_project ON burndown_points(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored series for the pair, ordered by day.
func (s *SQLiteStore) Get(ctx context.Context, projectID, actorID string) ([]burndown.Point, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, ideal, actual FROM burndown_points
		 WHERE project_id = ? AND actor_id = ? ORDER BY day`,
		projectID, actorID)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = rows.Close() }()

	var series []burndown.Point
	for rows.Next() {
		var day string
		var ideal int
		var actual sql.NullInt64
		if err := rows.Scan(&day, &ideal, &actual); err != nil {
			return nil, false, err
		}
		date, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, false, fmt.Errorf("malformed day %q: %w", day, err)
		}
		point := burndown.Point{Date: date, Ideal: ideal}
		if actual.Valid {
			v := int(actual.Int64)
			point.Actual = &v
		}
		series = append(series, point)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(series) == 0 {
		return nil, false, nil
	}
	return series, true, nil
}

// Upsert replaces the stored series for the pair in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, projectID, actorID string, series []burndown.Point) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM burndown_points WHERE project_id = ? AND actor_id = ?`,
		projectID, actorID); err != nil {
		return err
	}

	for _, point := range series {
		var actual any
		if point.Actual != nil {
			actual = *point.Actual
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO burndown_points (project_id, actor_id, day, ideal, actual)
			 VALUES (?, ?, ?, ?, ?)`,
			projectID, actorID, point.Date.UTC().Format(dayFormat), point.Ideal, actual); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Delete removes every series stored for the project.
func (s *SQLiteStore) Delete(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM burndown_points WHERE project_id = ?`, projectID)
	return err
}

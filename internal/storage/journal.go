// Package storage keeps the activity journal: a SQLite record of every form
// submission and its outcome.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expenseweb/internal/core"
	"expenseweb/internal/log"

	_ "modernc.org/sqlite"
)

// DefaultRecentLimit is used by Recent when limit is not positive.
const DefaultRecentLimit = 50

// timeLayout is fixed width so occurred_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Journal struct {
	db     *sql.DB
	logger *log.Logger
}

// Open creates the database file and its directory if needed and migrates it.
func Open(dbPath string, logger *log.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Journal{db: db, logger: logger.WithComponent(log.ComponentJournal)}, nil
}

func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Record appends one activity. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, a core.Activity) error {
	if a.At.IsZero() {
		a.At = time.Now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO activity (kind, outcome, expense_id, category, amount, message, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(a.Kind), string(a.Outcome), a.ExpenseID, a.Category, a.Amount, a.Message,
		a.At.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	id, _ := res.LastInsertId()
	j.logger.DebugContext(ctx, "Activity journaled",
		"id", id,
		"kind", a.Kind,
		"outcome", a.Outcome)
	return nil
}

// Recent returns up to limit activities, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]core.Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, outcome, expense_id, category, amount, message, occurred_at
		 FROM activity ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	out := make([]core.Activity, 0, limit)
	for rows.Next() {
		var (
			a          core.Activity
			kind, outc string
			at         string
		)
		if err := rows.Scan(&a.ID, &kind, &outc, &a.ExpenseID, &a.Category, &a.Amount, &a.Message, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Kind = core.ActivityKind(kind)
		a.Outcome = core.Outcome(outc)
		if a.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parse activity time %q: %w", at, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

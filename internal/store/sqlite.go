package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Hundslouch/reminder-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

var _ Repo = (*SQLiteRepo)(nil)

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
// ":memory:" gives a private in-memory database (used by tests).
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; one connection also keeps an
	// in-memory database alive for the lifetime of the repo.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(db, DialectSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Ping checks that the database answers.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertUser inserts a user or updates display name and timezone of an existing one.
// created_at is kept from the first insert.
func (r *SQLiteRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, display_name, tz, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			tz           = excluded.tz`,
		u.ID, u.DisplayName, u.TZ, u.CreatedAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// GetUser returns a user by id or domain.ErrNotFound.
func (r *SQLiteRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, display_name, tz, created_at
		FROM users
		WHERE user_id = ?`,
		userID,
	)

	var (
		u         domain.User
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.DisplayName, &u.TZ, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// CreateReminder stores a new reminder and assigns its id.
func (r *SQLiteRepo) CreateReminder(ctx context.Context, rem *domain.Reminder) error {
	if err := validateReminder(rem); err != nil {
		return err
	}
	return insertReminder(ctx, r.db, rem)
}

// ReplaceReminders removes every pending reminder of the owner and stores rem, in one transaction.
func (r *SQLiteRepo) ReplaceReminders(ctx context.Context, rem *domain.Reminder) error {
	if err := validateReminder(rem); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE user_id = ?`, rem.UserID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear reminders of %d: %w", rem.UserID, err)
	}
	if err := insertReminder(ctx, tx, rem); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertReminder(ctx context.Context, db execer, rem *domain.Reminder) error {
	created := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO reminders (user_id, text, due_at, created_at)
		VALUES (?, ?, ?, ?)`,
		rem.UserID, rem.Text, rem.DueAt.UTC().Unix(), created.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert reminder for %d: %w", rem.UserID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rem.ID = id
	rem.DueAt = rem.DueAt.UTC()
	rem.CreatedAt = time.Unix(created.Unix(), 0).UTC()
	return nil
}

// ListDueCandidates returns up to `limit` reminders with due_at before the end of asOf's minute.
// Results are ordered by due_at ascending.
func (r *SQLiteRepo) ListDueCandidates(ctx context.Context, asOf time.Time, after Cursor, limit int) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT id, user_id, text, due_at, created_at
		FROM reminders
		WHERE due_at < ?
		  AND (due_at > ? OR (due_at = ? AND id > ?))
		ORDER BY due_at ASC, id ASC
		LIMIT ?`,
		candidateCutoff(asOf).Unix(), after.DueAt.Unix(), after.DueAt.Unix(), after.ID, normLimit(limit),
	)
}

// ListByUser returns the pending reminders of one user, soonest first.
func (r *SQLiteRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT id, user_id, text, due_at, created_at
		FROM reminders
		WHERE user_id = ?
		ORDER BY due_at ASC, id ASC
		LIMIT ?`,
		userID, normLimit(limit),
	)
}

func (r *SQLiteRepo) queryReminders(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Reminder
	for rows.Next() {
		var (
			rem       domain.Reminder
			dueAt     int64
			createdAt int64
		)
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Text, &dueAt, &createdAt); err != nil {
			return nil, err
		}
		rem.DueAt = time.Unix(dueAt, 0).UTC()
		rem.CreatedAt = time.Unix(createdAt, 0).UTC()
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteReminder removes a reminder; a missing row is not an error.
func (r *SQLiteRepo) DeleteReminder(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Hundslouch/reminder-bot/internal/domain"
)

// PostgresRepo implements Repo on top of a pgx connection pool.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

var _ Repo = (*PostgresRepo)(nil)

// OpenPostgres connects to the database at url, runs migrations and returns a repository.
func OpenPostgres(ctx context.Context, url string) (*PostgresRepo, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	// darwin speaks database/sql; borrow the pool through the pgx stdlib adapter.
	sqlDB := stdlib.OpenDBFromPool(pool)
	err = RunMigrations(sqlDB, DialectPostgres)
	_ = sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// Close releases the pool.
func (r *PostgresRepo) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks that the database answers.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// UpsertUser inserts a user or updates display name and timezone of an existing one.
func (r *PostgresRepo) UpsertUser(ctx context.Context, u *domain.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, display_name, tz, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			tz           = EXCLUDED.tz`,
		u.ID, u.DisplayName, u.TZ, u.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// GetUser returns a user by id or domain.ErrNotFound.
func (r *PostgresRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, display_name, tz, created_at
		FROM users
		WHERE user_id = $1`,
		userID,
	).Scan(&u.ID, &u.DisplayName, &u.TZ, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// CreateReminder stores a new reminder and assigns its id.
func (r *PostgresRepo) CreateReminder(ctx context.Context, rem *domain.Reminder) error {
	if err := validateReminder(rem); err != nil {
		return err
	}
	return pgInsertReminder(ctx, r.pool, rem)
}

// ReplaceReminders removes every pending reminder of the owner and stores rem, in one transaction.
func (r *PostgresRepo) ReplaceReminders(ctx context.Context, rem *domain.Reminder) error {
	if err := validateReminder(rem); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM reminders WHERE user_id = $1`, rem.UserID); err != nil {
		return fmt.Errorf("clear reminders of %d: %w", rem.UserID, err)
	}
	if err := pgInsertReminder(ctx, tx, rem); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgQueryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func pgInsertReminder(ctx context.Context, q pgQueryRower, rem *domain.Reminder) error {
	err := q.QueryRow(ctx, `
		INSERT INTO reminders (user_id, text, due_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		rem.UserID, rem.Text, rem.DueAt.UTC(),
	).Scan(&rem.ID, &rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reminder for %d: %w", rem.UserID, err)
	}
	rem.DueAt = rem.DueAt.UTC()
	rem.CreatedAt = rem.CreatedAt.UTC()
	return nil
}

// ListDueCandidates returns up to `limit` reminders with due_at before the end of asOf's minute.
func (r *PostgresRepo) ListDueCandidates(ctx context.Context, asOf time.Time, after Cursor, limit int) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT id, user_id, text, due_at, created_at
		FROM reminders
		WHERE due_at < $1
		  AND (due_at, id) > ($2::timestamptz, $3::bigint)
		ORDER BY due_at ASC, id ASC
		LIMIT $4`,
		candidateCutoff(asOf), after.DueAt.UTC(), after.ID, normLimit(limit),
	)
}

// ListByUser returns the pending reminders of one user, soonest first.
func (r *PostgresRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Reminder, error) {
	return r.queryReminders(ctx, `
		SELECT id, user_id, text, due_at, created_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY due_at ASC, id ASC
		LIMIT $2`,
		userID, normLimit(limit),
	)
}

func (r *PostgresRepo) queryReminders(ctx context.Context, query string, args ...any) ([]domain.Reminder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Reminder
	for rows.Next() {
		var rem domain.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Text, &rem.DueAt, &rem.CreatedAt); err != nil {
			return nil, err
		}
		rem.DueAt = rem.DueAt.UTC()
		rem.CreatedAt = rem.CreatedAt.UTC()
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteReminder removes a reminder; a missing row is not an error.
func (r *PostgresRepo) DeleteReminder(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete reminder %d: %w", id, err)
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Hundslouch/reminder-bot/internal/domain"
)

//go:generate mockgen -source=repo.go -destination=../mocks/repo_mock.go -package=mocks

// Repo defines storage operations for users and their reminders.
// Implementations must give at least read-committed isolation.
type Repo interface {
	// GetUser returns domain.ErrNotFound when no such user exists.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	UpsertUser(ctx context.Context, u *domain.User) error

	// CreateReminder inserts r and fills in its ID and CreatedAt.
	CreateReminder(ctx context.Context, r *domain.Reminder) error
	// ReplaceReminders drops the owner's pending reminders and inserts r atomically.
	ReplaceReminders(ctx context.Context, r *domain.Reminder) error

	// ListDueCandidates returns reminders whose due_at falls before the end of
	// asOf's minute, oldest first, strictly after the cursor position. The
	// caller still decides due-ness per user.
	ListDueCandidates(ctx context.Context, asOf time.Time, after Cursor, limit int) ([]domain.Reminder, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Reminder, error)

	// DeleteReminder is idempotent: deleting a missing id is not an error.
	DeleteReminder(ctx context.Context, id int64) error

	Ping(ctx context.Context) error
	Close() error
}

// Cursor is a keyset position in (due_at, id) order. The zero Cursor starts
// from the beginning.
type Cursor struct {
	DueAt time.Time
	ID    int64
}

// CursorAfter returns the position just past r.
func CursorAfter(r domain.Reminder) Cursor {
	return Cursor{DueAt: r.DueAt, ID: r.ID}
}

// candidateCutoff is the exclusive upper bound used by ListDueCandidates.
func candidateCutoff(asOf time.Time) time.Time {
	return domain.TruncateMinute(asOf).Add(time.Minute)
}

const defaultListLimit = 100

func normLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func validateUser(u *domain.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	tz, err := domain.ValidateTZ(u.TZ)
	if err != nil {
		return err
	}
	u.TZ = tz
	return nil
}

func validateReminder(r *domain.Reminder) error {
	if r == nil {
		return errors.New("nil reminder")
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: empty reminder text", domain.ErrInvalidArgument)
	}
	if r.DueAt.IsZero() {
		return fmt.Errorf("%w: reminder without due time", domain.ErrInvalidArgument)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/Hundslouch/reminder-bot/internal/domain"
	"github.com/Hundslouch/reminder-bot/internal/store"
)

// statusLimit caps how many pending reminders /status lists.
const statusLimit = 10

// Service handles the user-facing reminder commands.
type Service struct {
	repo      store.Repo
	log       *zap.Logger
	defaultTZ string
	replace   bool
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithReplaceByOwner makes /set_reminder replace the user's pending reminders
// instead of adding another one.
func WithReplaceByOwner(on bool) Option {
	return func(s *Service) { s.replace = on }
}

// New creates a Service. defaultTZ must already be validated.
func New(repo store.Repo, log *zap.Logger, defaultTZ string, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		log:       log,
		defaultTZ: defaultTZ,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start registers the user with the default timezone on first contact and returns the greeting.
func (s *Service) Start(ctx context.Context, userID int64, displayName string) (string, error) {
	u, err := s.ensureUser(ctx, userID, displayName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(startFmt, greetName(displayName), u.TZ), nil
}

// SetTimezone validates rawArg and stores it as the user's timezone.
// Existing reminders keep their instant.
func (s *Service) SetTimezone(ctx context.Context, userID int64, displayName, rawArg string) (string, error) {
	arg := strings.TrimSpace(rawArg)
	if arg == "" {
		return "", fmt.Errorf("%w: timezone is required", domain.ErrInvalidArgument)
	}
	tz, err := domain.ValidateTZ(arg)
	if err != nil {
		return "", err
	}

	u := &domain.User{ID: userID, DisplayName: displayName, TZ: tz}
	if err := s.repo.UpsertUser(ctx, u); err != nil {
		return "", err
	}
	s.log.Info("timezone updated", zap.Int64("userID", userID), zap.String("tz", tz))
	return fmt.Sprintf(timezoneSetFmt, tz), nil
}

// SetReminder parses "DD.MM.YYYY HH:MM text", resolves it in the user's current
// timezone and stores the reminder. Nothing is written unless the instant lies in
// the future.
func (s *Service) SetReminder(ctx context.Context, userID int64, displayName, rawArgs string) (string, error) {
	parts := splitArgs(rawArgs, 3)
	if len(parts) < 3 || strings.TrimSpace(parts[2]) == "" {
		return "", fmt.Errorf("%w: expected date, time and text", domain.ErrInvalidArgument)
	}
	date, clock, text := parts[0], parts[1], strings.TrimSpace(parts[2])

	tz := s.defaultTZ
	known := true
	u, err := s.repo.GetUser(ctx, userID)
	switch {
	case err == nil:
		tz = u.TZ
	case errors.Is(err, domain.ErrNotFound):
		known = false
	default:
		return "", err
	}

	dueAt, err := domain.ToUTC(date, clock, tz)
	if err != nil {
		return "", err
	}
	now := domain.TruncateMinute(s.now())
	if !dueAt.After(now) {
		return "", fmt.Errorf("%w: %s is not after %s", domain.ErrPastDueTime,
			dueAt.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	if !known {
		// the reminder row references its owner, and the notification needs a name
		if err := s.repo.UpsertUser(ctx, &domain.User{ID: userID, DisplayName: displayName, TZ: tz}); err != nil {
			return "", err
		}
	}

	rem := &domain.Reminder{UserID: userID, Text: text, DueAt: dueAt}
	if s.replace {
		err = s.repo.ReplaceReminders(ctx, rem)
	} else {
		err = s.repo.CreateReminder(ctx, rem)
	}
	if err != nil {
		return "", err
	}

	local, err := domain.FormatLocal(dueAt, tz)
	if err != nil {
		return "", err
	}
	s.log.Info("reminder created",
		zap.Int64("userID", userID),
		zap.Int64("reminderID", rem.ID),
		zap.Time("dueAt", dueAt),
		zap.String("tz", tz),
	)
	return fmt.Sprintf(reminderSetFmt, local, tz, text), nil
}

// Status lists the user's timezone and pending reminders in local time.
func (s *Service) Status(ctx context.Context, userID int64, displayName string) (string, error) {
	u, err := s.ensureUser(ctx, userID, displayName)
	if err != nil {
		return "", err
	}
	rems, err := s.repo.ListByUser(ctx, userID, statusLimit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, statusHeaderFmt, u.TZ)
	if len(rems) == 0 {
		b.WriteString(statusEmpty)
		return b.String(), nil
	}
	for _, r := range rems {
		local, err := domain.FormatLocal(r.DueAt, u.TZ)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, statusItemFmt, local, r.Text)
	}
	return b.String(), nil
}

// ensureUser makes sure a user row exists; if not, creates it with the default timezone.
func (s *Service) ensureUser(ctx context.Context, userID int64, displayName string) (*domain.User, error) {
	u, err := s.repo.GetUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	u = &domain.User{ID: userID, DisplayName: displayName, TZ: s.defaultTZ}
	if err := s.repo.UpsertUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("userID", userID), zap.String("tz", u.TZ))
	return u, nil
}

// splitArgs splits s into at most n whitespace-separated fields; the last field
// keeps its inner spacing.
func splitArgs(s string, n int) []string {
	var out []string
	s = strings.TrimSpace(s)
	for s != "" && len(out) < n-1 {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		out = append(out, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func greetName(displayName string) string {
	if n := strings.TrimSpace(displayName); n != "" {
		return n
	}
	return "there"
}

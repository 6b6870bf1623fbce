package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hundslouch/reminder-bot/internal/domain"
	"github.com/Hundslouch/reminder-bot/internal/notify"
	"github.com/Hundslouch/reminder-bot/internal/store"
)

// Notifier delivers a rendered text to a user. notify.Dispatcher implements it.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

const (
	DefaultInterval = time.Minute
	DefaultBatch    = 100
	DefaultWorkers  = 4
)

// Config tunes a Scanner. Zero values fall back to the defaults above.
type Config struct {
	Interval  time.Duration
	Batch     int
	Workers   int
	DefaultTZ string
}

// CycleReport summarises one scan.
type CycleReport struct {
	CycleID    string
	Candidates int
	Sent       int
	Failed     int
	Orphaned   int
	NotDue     int
}

// Scanner periodically polls the store and dispatches due reminders.
// A reminder is deleted only after its delivery succeeded.
type Scanner struct {
	repo      store.Repo
	notifier  Notifier
	log       *zap.Logger
	interval  time.Duration
	batch     int
	workers   int
	defaultTZ string
	now       func() time.Time
}

// New creates a Scanner.
func New(repo store.Repo, notifier Notifier, log *zap.Logger, cfg Config) *Scanner {
	s := &Scanner{
		repo:      repo,
		notifier:  notifier,
		log:       log,
		interval:  cfg.Interval,
		batch:     cfg.Batch,
		workers:   cfg.Workers,
		defaultTZ: cfg.DefaultTZ,
		now:       time.Now,
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.batch <= 0 {
		s.batch = DefaultBatch
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	return s
}

// SetClock overrides the time source. Call before Run.
func (s *Scanner) SetClock(now func() time.Time) { s.now = now }

// Run scans once right away, then on every tick until ctx is canceled.
func (s *Scanner) Run(ctx context.Context) error {
	s.log.Info("scanner started", zap.Duration("interval", s.interval), zap.Int("workers", s.workers))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scanner stopping")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one scan cycle. Failures of single reminders are logged and
// counted, never returned: the next cycle retries whatever is still stored.
// Candidates are read page by page until exhausted, so reminders that keep
// failing never hide the ones behind them.
func (s *Scanner) Tick(ctx context.Context) CycleReport {
	now := domain.TruncateMinute(s.now())
	rep := CycleReport{CycleID: uuid.NewString()}
	log := s.log.With(zap.String("cycle_id", rep.CycleID))

	var (
		sent, failed, orphaned, notDue atomic.Int64
		after                          store.Cursor
	)
	for ctx.Err() == nil {
		rems, err := s.repo.ListDueCandidates(ctx, now, after, s.batch)
		if err != nil {
			log.Error("list due candidates failed", zap.Error(err))
			break
		}
		rep.Candidates += len(rems)
		if len(rems) == 0 {
			break
		}

		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, r := range rems {
			g.Go(func() error {
				switch err := s.process(ctx, log, r, now); {
				case err == nil:
					sent.Add(1)
				case errors.Is(err, errNotDue):
					notDue.Add(1)
				case errors.Is(err, domain.ErrOrphanedReminder):
					orphaned.Add(1)
				default:
					failed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		if len(rems) < s.batch {
			break
		}
		after = store.CursorAfter(rems[len(rems)-1])
	}

	rep.Sent = int(sent.Load())
	rep.Failed = int(failed.Load())
	rep.Orphaned = int(orphaned.Load())
	rep.NotDue = int(notDue.Load())

	if rep.Candidates == 0 {
		log.Debug("nothing due", zap.Time("now", now))
		return rep
	}
	log.Info("cycle finished",
		zap.Int("candidates", rep.Candidates),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("orphaned", rep.Orphaned),
	)
	return rep
}

var errNotDue = errors.New("not due yet")

// process handles one candidate. nil means the reminder was delivered.
func (s *Scanner) process(ctx context.Context, log *zap.Logger, r domain.Reminder, now time.Time) error {
	log = log.With(zap.Int64("reminderID", r.ID), zap.Int64("userID", r.UserID))

	u, err := s.repo.GetUser(ctx, r.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("skipping reminder without owner")
		return domain.ErrOrphanedReminder
	}
	if err != nil {
		log.Error("get user failed", zap.Error(err))
		return err
	}

	due, err := domain.IsDueIn(r.DueAt, now, u.TZ)
	if err != nil {
		log.Warn("owner timezone unusable, using default", zap.String("tz", u.TZ), zap.Error(err))
		if due, err = domain.IsDueIn(r.DueAt, now, s.defaultTZ); err != nil {
			return err
		}
	}
	if !due {
		return errNotDue
	}

	if err := s.notifier.Send(ctx, r.UserID, notify.FormatNotification(u.DisplayName, r.Text)); err != nil {
		// kept for the next cycle
		return err
	}

	if err := s.repo.DeleteReminder(ctx, r.ID); err != nil {
		// delivered; a leftover row means one duplicate at worst
		log.Error("delete after send failed", zap.Error(err))
		return nil
	}
	log.Info("reminder delivered", zap.Time("dueAt", r.DueAt))
	return nil
}

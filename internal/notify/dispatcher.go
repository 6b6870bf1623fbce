package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Hundslouch/reminder-bot/internal/domain"
)

//go:generate mockgen -source=dispatcher.go -destination=../mocks/sender_mock.go -package=mocks

// Sender is the outbound side of the chat transport.
// telegram.Router implements it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// DefaultSendTimeout bounds a single delivery attempt.
const DefaultSendTimeout = 10 * time.Second

// Dispatcher delivers reminder texts through a Sender.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	timeout time.Duration
}

// NewDispatcher creates a Dispatcher. A non-positive timeout means DefaultSendTimeout.
func NewDispatcher(sender Sender, log *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		sender:  sender,
		log:     log,
		timeout: timeout,
	}
}

// Send delivers text to userID. Every transport error, including a timeout,
// comes back wrapped in domain.ErrTransientFailure so the caller keeps the reminder.
func (d *Dispatcher) Send(ctx context.Context, userID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.sender.SendMessage(ctx, userID, text); err != nil {
		d.log.Warn("delivery failed",
			zap.Int64("userID", userID),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", domain.ErrTransientFailure, err)
	}
	d.log.Debug("delivered", zap.Int64("userID", userID), zap.Duration("took", time.Since(start)))
	return nil
}

// FormatNotification renders the text a user receives when a reminder fires.
func FormatNotification(displayName, text string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Hey"
	}
	return fmt.Sprintf("%s, don't forget: %s", name, text)
}

package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Hundslouch/reminder-bot/internal/domain"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	r.send(chatID, text, nil)
}

func (r *Router) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("reply failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// result turns a service outcome into a reply.
func (r *Router) result(cmd string, userID int64, reply string, err error) (string, bool) {
	if err == nil {
		return reply, true
	}
	return r.errorReply(cmd, userID, err), false
}

// errorReply maps domain errors to user-facing texts. Anything else is logged
// and answered with a generic apology.
func (r *Router) errorReply(cmd string, userID int64, err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		if u, ok := usageTexts[cmd]; ok {
			return u
		}
		return helpText
	case errors.Is(err, domain.ErrInvalidTimeFormat):
		return invalidTimeFormatText
	case errors.Is(err, domain.ErrUnknownTimezone):
		return unknownTZText
	case errors.Is(err, domain.ErrPastDueTime):
		return pastDueText
	default:
		r.log.Error("command failed", zap.String("cmd", cmd), zap.Int64("userID", userID), zap.Error(err))
		return internalErrorText
	}
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, userID int64, name, _ string) (string, bool) {
	reply, err := r.svc.Start(ctx, userID, name)
	return r.result("start", userID, reply, err)
}

func (r *Router) handleHelp(_ context.Context, _ int64, _, _ string) (string, bool) {
	return helpText, true
}

func (r *Router) handleSetTimezone(ctx context.Context, userID int64, name, args string) (string, bool) {
	reply, err := r.svc.SetTimezone(ctx, userID, name, args)
	return r.result("set_timezone", userID, reply, err)
}

func (r *Router) handleSetReminder(ctx context.Context, userID int64, name, args string) (string, bool) {
	reply, err := r.svc.SetReminder(ctx, userID, name, args)
	return r.result("set_reminder", userID, reply, err)
}

func (r *Router) handleStatus(ctx context.Context, userID int64, name, _ string) (string, bool) {
	reply, err := r.svc.Status(ctx, userID, name)
	return r.result("status", userID, reply, err)
}

// --- Free-form dispatcher (for "Custom" inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID, userID int64, name, text string) {
	switch r.getPending(userID) {
	case pendingTZ:
		r.clearPending(userID)
		reply, _ := r.handleSetTimezone(ctx, userID, name, text)
		r.sendText(chatID, reply)
	default:
		// No pending flow: ignore free-form message
	}
}

// --- Timezone flow ---

func (r *Router) askTZPresets(chatID int64) {
	r.send(chatID, tzPromptText, tzPresetsKeyboard())
}

func (r *Router) handleTZCallback(ctx context.Context, chatID, userID int64, name, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	val := strings.TrimPrefix(data, "tz:")
	if val == "custom" {
		r.setPending(userID, pendingTZ)
		r.sendText(chatID, tzCustomText)
		return
	}
	reply, _ := r.handleSetTimezone(ctx, userID, name, val)
	r.sendText(chatID, reply)
}

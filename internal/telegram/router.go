package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Pending state keys used in conversational flows.
const (
	pendingTZ = "await_tz_text"
)

// Service is the command side the router drives. service.Service implements it.
type Service interface {
	Start(ctx context.Context, userID int64, displayName string) (string, error)
	SetTimezone(ctx context.Context, userID int64, displayName, rawArg string) (string, error)
	SetReminder(ctx context.Context, userID int64, displayName, rawArgs string) (string, error)
	Status(ctx context.Context, userID int64, displayName string) (string, error)
}

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler serves one command. ok is false when reply describes a failure.
type Handler func(ctx context.Context, userID int64, displayName, args string) (reply string, ok bool)

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot      Bot
	log      *zap.Logger
	svc      Service
	handlers map[string]Handler
	state    map[int64]string // userID -> pending state
	mu       sync.RWMutex
}

// NewRouter creates a new Telegram router.
func NewRouter(bot Bot, log *zap.Logger, svc Service) *Router {
	r := &Router{
		bot:   bot,
		log:   log,
		svc:   svc,
		state: make(map[int64]string),
	}
	r.handlers = map[string]Handler{
		"start":        r.handleStart,
		"help":         r.handleHelp,
		"set_timezone": r.handleSetTimezone,
		"set_reminder": r.handleSetReminder,
		"status":       r.handleStatus,
	}
	return r
}

func (r *Router) setPending(userID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[userID] = s
}

func (r *Router) getPending(userID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[userID]
}

func (r *Router) clearPending(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, userID)
}

// Listen consumes updates until ctx is canceled or the channel is closed.
func (r *Router) Listen(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			r.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		r.handleMessage(ctx, upd.Message)
		return
	}

	// Callback queries (inline buttons)
	if cb := upd.CallbackQuery; cb != nil && cb.Message != nil {
		if cb.From == nil || cb.Message.Chat == nil || !cb.Message.Chat.IsPrivate() {
			_ = r.answerCallback(cb.ID, privateOnlyText)
			return
		}
		switch {
		case strings.HasPrefix(cb.Data, "tz:"):
			r.handleTZCallback(ctx, cb.Message.Chat.ID, cb.From.ID, displayName(cb.From), cb.Data, cb.ID)
		default:
			// Unknown callback: ignore silently
			_ = r.answerCallback(cb.ID, "")
		}
	}
}

// handleMessage serves private chats only. Users are keyed by the sender, and
// in a private chat the chat id equals the sender id, so notifications reach
// the same conversation the reminder was created in.
func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	if !msg.Chat.IsPrivate() {
		if msg.IsCommand() {
			r.sendText(chatID, privateOnlyText)
		}
		return
	}
	userID := msg.From.ID
	name := displayName(msg.From)

	if !msg.IsCommand() {
		r.handleFreeForm(ctx, chatID, userID, name, strings.TrimSpace(msg.Text))
		return
	}

	cmd := msg.Command()
	args := msg.CommandArguments()
	r.clearPending(userID)

	if cmd == "set_timezone" && strings.TrimSpace(args) == "" {
		r.askTZPresets(chatID)
		return
	}

	h, ok := r.handlers[cmd]
	if !ok {
		r.sendText(chatID, unknownCommandText)
		return
	}
	reply, _ := h(ctx, userID, name, args)

	switch cmd {
	case "start", "help":
		r.send(chatID, reply, mainMenuKeyboard())
	default:
		r.sendText(chatID, reply)
	}
}

// SendMessage sends a plain text message to the given chat.
// This makes Router satisfy notify.Sender. The bot's HTTP client carries its
// own timeout, so a send left behind by a canceled ctx still ends.
func (r *Router) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if n := strings.TrimSpace(u.FirstName); n != "" {
		return n
	}
	return u.UserName
}

package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Hundslouch/reminder-bot/internal/config"
	"github.com/Hundslouch/reminder-bot/internal/notify"
	"github.com/Hundslouch/reminder-bot/internal/scheduler"
	"github.com/Hundslouch/reminder-bot/internal/service"
	"github.com/Hundslouch/reminder-bot/internal/store"
	"github.com/Hundslouch/reminder-bot/internal/telegram"
)

const (
	shutdownTimeout = 5 * time.Second
	// long poll window of getUpdates, in seconds
	longPollTimeout = 30
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI // long polling
	sender  *tgbotapi.BotAPI // replies and notifications
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	scanner *scheduler.Scanner
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := newBot(cfg.BotToken, tgbotapi.APIEndpoint, longPollTimeout*time.Second+cfg.SendTimeout)
	if err != nil {
		return nil, err
	}
	sender, err := newBot(cfg.BotToken, tgbotapi.APIEndpoint, cfg.SendTimeout)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, sender: sender, httpSrv: srv}, nil
}

// newBot creates a Bot API client whose every HTTP call is cut off after
// timeout, so no request outlives a stalled Telegram connection.
func newBot(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	return bot, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting reminder-bot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("db", a.cfg.DBDriver),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("defaultTZ", a.cfg.DefaultTZ),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := store.Open(ctx, a.cfg.DBDriver, a.cfg.DSN())
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.repo = repo
	defer func() {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("store close error", zap.Error(err))
		}
	}()
	a.log.Info("store ready")

	svc := service.New(repo, a.log.Named("service"), a.cfg.DefaultTZ,
		service.WithReplaceByOwner(a.cfg.ReplaceByOwner),
	)
	a.router = telegram.NewRouter(a.sender, a.log.Named("telegram"), svc)
	dispatcher := notify.NewDispatcher(a.router, a.log.Named("notify"), a.cfg.SendTimeout)
	a.scanner = scheduler.New(repo, dispatcher, a.log.Named("scheduler"), scheduler.Config{
		Interval:  a.cfg.PollInterval,
		Batch:     a.cfg.ScanBatch,
		Workers:   a.cfg.ScanWorkers,
		DefaultTZ: a.cfg.DefaultTZ,
	})
	a.httpSrv.Handler = newHealthMux(repo, a.log.Named("http"))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = longPollTimeout
	updCh := a.bot.GetUpdatesChan(u)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.router.Listen(gctx, updCh) })
	g.Go(func() error { return a.scanner.Run(gctx) })
	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown signal received")
		a.bot.StopReceivingUpdates()

		// Create a short-lived shutdown context and cancel it immediately after use.
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := a.httpSrv.Shutdown(shCtx)
		cancel()
		if err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.log.Error("stopped with error", zap.Error(err))
		return err
	}
	a.log.Info("stopped")
	return nil
}

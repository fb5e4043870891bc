package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spec-kit/daily-status/internal/client"
	"github.com/spec-kit/daily-status/internal/feed"
	"github.com/spec-kit/daily-status/internal/observability"
	"github.com/spec-kit/daily-status/internal/persistence"
)

// app holds the collaborators of one dashboard session.
type app struct {
	settings *settings
	logger   *zap.Logger
	api      *client.Client
	recovery *feed.RecoveryCache
	closers  []func()
}

func newApp(s *settings) (*app, error) {
	if s.logger.File != "" {
		if err := os.MkdirAll(filepath.Dir(s.logger.File), 0o700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	logger, err := observability.NewLogger(s.logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		settings: s,
		logger:   logger,
		api: client.New(s.dashboard.APIBaseURL,
			client.NewFileTokenStore(s.dashboard.TokenPath), s.dashboard.FetchTimeout()),
	}

	store, err := a.openStore()
	if err != nil {
		a.close()
		return nil, err
	}
	a.recovery = feed.NewRecoveryCache(store, s.dashboard.CacheChunkSize)
	return a, nil
}

func (a *app) openStore() (feed.KeyValueStore, error) {
	switch a.settings.dashboard.CacheDriver {
	case "redis":
		redis := persistence.NewRedis(a.settings.base.Redis, a.logger)
		a.closers = append(a.closers, redis.Close)
		return persistence.NewRedisKV(redis.Client), nil
	default:
		path := a.settings.dashboard.CachePath
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		db, err := persistence.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open recovery cache: %w", err)
		}
		sqlDB, err := db.DB()
		if err == nil {
			a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		}
		return persistence.NewSQLiteKV(db), nil
	}
}

// controller builds a feed controller whose notifications go to out and
// the log.
func (a *app) controller(out io.Writer, selection feed.Selection) *feed.Controller {
	d := a.settings.dashboard
	fetcher := feed.NewFetcher(a.api, a.api, feed.FetcherConfig{
		InteractiveAttempts: d.InteractiveAttempts,
		BackgroundAttempts:  d.BackgroundAttempts,
		BaseDelay:           d.RetryBaseDelay(),
		Timeout:             d.FetchTimeout(),
		Location:            d.Location(),
	}, a.logger)

	return feed.NewController(feed.ControllerDeps{
		Session:  a.api,
		Fetcher:  fetcher,
		Recovery: a.recovery,
		Notifier: fanout{writerNotifier{out}, feed.ZapNotifier{Logger: a.logger}},
		Logger:   a.logger,
	}, selection)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// writerNotifier prints notifications as single lines.
type writerNotifier struct {
	out io.Writer
}

func (n writerNotifier) Success(message string) {
	fmt.Fprintln(n.out, "✓", message)
}

func (n writerNotifier) Error(message string) {
	fmt.Fprintln(n.out, "!", message)
}

type fanout []feed.Notifier

func (f fanout) Success(message string) {
	for _, n := range f {
		n.Success(message)
	}
}

func (f fanout) Error(message string) {
	for _, n := range f {
		n.Error(message)
	}
}

// withApp runs fn with an app built from the resolved settings.
func withApp(ctx context.Context, s *settings, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(s)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

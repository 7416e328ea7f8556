// Package main is eventctl, a headless client for the Event Tracker
// platform. It drives the same stores the web app uses: auth, organizer,
// follower, and event state, persisted between runs.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/event-tracker/eventclient/config"
	"github.com/event-tracker/eventclient/internal/auth"
	"github.com/event-tracker/eventclient/internal/events"
	"github.com/event-tracker/eventclient/internal/followers"
	"github.com/event-tracker/eventclient/internal/organizers"
	"github.com/event-tracker/eventclient/pkg/rest"
	"github.com/event-tracker/eventclient/pkg/session"
)

const usage = `usage: eventctl <command> [args]

account:
  register <name> <email> <password>
  login <email> <password>
  logout
  whoami
  update-name <name>

events:
  events
  comments <eventId>
  comment <eventId> <text...>

organizer:
  org-register <phone> <description> <website>
  organizers
  my-events
  create-event <title> <location> <category> <start> <end> <imagePath>
  delete-event <eventId>

follows:
  followers
  following
  follow <organizerId>

demo  (runs a scripted flow against a local in-memory backend)`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log.Level)
	defer logger.Sync()

	ctx := context.Background()

	if os.Args[1] == "demo" {
		if err := runDemo(ctx, logger); err != nil {
			fmt.Fprintln(os.Stderr, "demo:", err)
			os.Exit(1)
		}
		return
	}

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app wires the stores together the way the web client composes them:
// identity flows from the auth store into the others by injection.
type app struct {
	auth       *auth.Store
	organizers *organizers.Store
	followers  *followers.Store
	events     *events.Store
	closeFn    func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	sess, closeFn, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client := rest.New(rest.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	a := &app{closeFn: closeFn}
	a.auth = auth.NewStore(client, sess, logger)
	a.organizers = organizers.NewStore(client, a.auth, sess, logger)
	a.followers = followers.NewStore(client, a.auth, a.organizers, sess, logger)
	a.events = events.NewStore(client, a.auth, sess, logger)

	for name, load := range map[string]func(context.Context) error{
		"auth":       a.auth.Load,
		"organizers": a.organizers.Load,
		"followers":  a.followers.Load,
		"events":     a.events.Load,
	} {
		if err := load(ctx); err != nil {
			logger.Warn("rehydrate store", zap.String("store", name), zap.Error(err))
		}
	}
	return a, nil
}

func (a *app) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case "redis":
		store, err := session.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "file":
		store, err := session.NewFileStore(cfg.Session.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("file session store: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := cfg.Build()
	return logger
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// Package app wires the daemon together: host adapter, playback clock,
// caches, provider client and the session state machine.
package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricsync/internal/config"
	"lyricsync/internal/host"
	"lyricsync/internal/playback"
	"lyricsync/internal/session"
	"lyricsync/pkg/provider"
	"lyricsync/pkg/redis"
)

type App struct {
	cfg        *config.Config
	hostClient *host.PlayerctlClient
	redis      *redis.Client
	session    *session.Session
}

func New(cfg *config.Config) *App {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
	}

	hostClient := host.NewPlayerctlClient(cfg.App.PollInterval)
	clock := playback.NewClock(hostClient, cfg.App.TickInterval)
	lyricsClient := provider.NewClient(cfg.Provider.BaseURL)
	tokens := session.NewTokenProvider(
		host.StaticTokenSource{AccessToken: cfg.Provider.AccessToken}, nil)

	return &App{
		cfg:        cfg,
		hostClient: hostClient,
		redis:      redisClient,
		session:    session.New(hostClient, clock, redisClient, lyricsClient, tokens),
	}
}

// Session exposes the running state machine for frontends.
func (a *App) Session() *session.Session {
	return a.session
}

// Run starts the host poll loop and the session, then blocks until the
// context ends.
func (a *App) Run(ctx context.Context) {
	log.Info().
		Dur("tick_interval", a.cfg.App.TickInterval).
		Dur("poll_interval", a.cfg.App.PollInterval).
		Msg("Starting")

	go a.hostClient.Run(ctx)
	a.session.Start(ctx)

	<-ctx.Done()

	a.session.Stop()
	if err := a.redis.Close(); err != nil {
		log.Warn().Err(err).Msg("Redis close failed")
	}
	log.Info().Msg("Stopped")
}

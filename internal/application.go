package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/othello-viewer/internal/arena"
	"github.com/rocketscienceinc/othello-viewer/internal/config"
	"github.com/rocketscienceinc/othello-viewer/internal/render"
	"github.com/rocketscienceinc/othello-viewer/internal/repository"
	"github.com/rocketscienceinc/othello-viewer/internal/repository/storage"
	"github.com/rocketscienceinc/othello-viewer/internal/session"
	"github.com/rocketscienceinc/othello-viewer/transport/rest"
	"github.com/rocketscienceinc/othello-viewer/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	statsRepo, closeRepo, err := newStatsRepository(ctx, log, conf.Redis)
	if err != nil {
		return err
	}
	defer closeRepo()

	renderer, err := render.NewRenderer()
	if err != nil {
		return fmt.Errorf("could not load templates: %w", err)
	}

	arenaClient := arena.New(logger, conf.Arena.BaseURL, conf.Arena.RequestTimeout)
	controller := session.NewController(logger, arenaClient, statsRepo, session.Options{
		PollInterval: conf.Session.PollInterval,
		ResetDelay:   conf.Session.ResetDelay,
	})
	defer controller.Close()

	wsServer := websocket.New(logger, controller, renderer)
	unsubscribe := controller.Subscribe(wsServer.Broadcast)
	defer unsubscribe()

	// stats are shown from the first page load; key status only informs the setup form
	go controller.RefreshStats(ctx)
	go func() {
		if keysErr := controller.CheckKeys(ctx); keysErr != nil {
			log.Warn("could not check api keys", "error", keysErr)
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpServer := rest.New(logger, controller, renderer, conf.SocketPort)
		if httpErr := httpServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newStatsRepository - Redis-backed when enabled, process-local otherwise.
func newStatsRepository(ctx context.Context, log *slog.Logger, conf config.Redis) (repository.StatsRepository, func(), error) {
	if !conf.Enabled {
		log.Info("Redis disabled, caching stats in memory")
		return repository.NewMemoryStatsRepository(), func() {}, nil
	}

	redisAddrString := conf.GetRedisAddr()
	if conf.Host == "" || conf.Port == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if closeErr := redisStorage.Close(); closeErr != nil {
			log.Error("could not close redis storage", "error", closeErr)
		}
	}

	return repository.NewStatsRepository(redisStorage, conf.StatsTTL), closeFn, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jpleseux/demolish-dash/internal/config"
	"github.com/Jpleseux/demolish-dash/internal/game"
	"github.com/Jpleseux/demolish-dash/internal/httpapi"
	"github.com/Jpleseux/demolish-dash/internal/relay"
	"github.com/Jpleseux/demolish-dash/internal/room"
	"github.com/Jpleseux/demolish-dash/internal/store"
)

// storage is the slice of the store both the room service and the relay need.
type storage interface {
	room.Store
	relay.GameStateMerger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := buildLogger(cfg.Debug)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st storage
	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		st = db
		log.Info("using postgres storage")
	} else {
		st = store.NewMem()
		log.Warn("DATABASE_URL unset, using in-memory storage")
	}

	rl := relay.New(ctx, st, log, cfg.RelayIdleTimeout)
	defer rl.Shutdown()

	svc := room.NewService(st, log, game.TypeNames())

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(svc, rl, log),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

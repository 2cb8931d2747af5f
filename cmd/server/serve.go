package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cafe-finder/internal/auth"
	"github.com/iliyamo/cafe-finder/internal/config"
	"github.com/iliyamo/cafe-finder/internal/database"
	"github.com/iliyamo/cafe-finder/internal/logging"
	"github.com/iliyamo/cafe-finder/internal/queue"
	"github.com/iliyamo/cafe-finder/internal/repository"
	"github.com/iliyamo/cafe-finder/internal/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logging.New("cafe-finder", cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Info("redis unavailable; rate limiting uses in-process buckets")
	} else {
		defer rdb.Close()
	}
	if cfg.RabbitMQURL == "" {
		log.Info("RABBITMQ_URL not set; activity events are dropped")
	}

	users := repository.NewUserRepo(db)
	e, err := router.New(router.Deps{
		Config:    cfg,
		RateLimit: config.LoadRateLimitConfig(),
		Log:       log,
		Redis:     rdb,
		DB:        db,
		Users:     users,
		Auth:      auth.NewService(users, cfg.BcryptCost),
		Cafes:     repository.NewCafeRepo(db),
		Cities:    repository.NewCityRepo(db),
		Publisher: queue.NewPublisher(cfg.RabbitMQURL),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

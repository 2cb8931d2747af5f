package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/cafe-finder/internal/config"
	"github.com/iliyamo/cafe-finder/internal/logging"
	"github.com/iliyamo/cafe-finder/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume-events",
	Short: "Append activity events from RabbitMQ to the activity log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log := logging.New("cafe-finder-consumer", cfg.LogLevel, cfg.LogFormat)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := &queue.Consumer{URL: cfg.RabbitMQURL, LogDir: cfg.ActivityLogDir, Log: log}
		log.Infof("consuming %s into %s", queue.ActivityQueue, cfg.ActivityLogDir)
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/hupe1980/tourmesh/internal/config"
	"github.com/hupe1980/tourmesh/internal/server"
	"github.com/hupe1980/tourmesh/logging"
	"github.com/hupe1980/tourmesh/tour"
	"github.com/spf13/cobra"
)

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planning service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if addr != "" {
				cfg.Server.Address = addr
			}

			lc := cfg.LoggerConfig()
			lc.Output = cmd.ErrOrStderr()
			logger := logging.NewLogger(lc).WithComponent("server")

			journal, err := logging.OpenJournal(cfg.Server.JournalFile)
			if err != nil {
				return err
			}
			defer journal.Close()

			factory := tour.NewFactory(cfg.TourOptions(logger.WithComponent("tour").WithContext("provider", cfg.Model.Provider)))
			logger.Info("serve.model", "provider", cfg.Model.Provider, "model", factory.ModelName())

			srv := server.New(factory, func(o *server.Options) {
				o.MaxConcurrentPlans = cfg.Server.MaxConcurrentPlans
				o.MaxModelCalls = cfg.Model.MaxCalls
				o.Logger = logger
				o.Journal = journal
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(cfg.Server.Address) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("server.shutdown")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")

	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/sieve/internal/core/api"
	"github.com/solatis/sieve/internal/core/auth"
	"github.com/solatis/sieve/internal/core/config"
	"github.com/solatis/sieve/internal/core/server"
	"github.com/solatis/sieve/internal/tasks"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gRPC query service",
		Long: `Serve sieve.v1.QueryService over gRPC against the task database.

API keys are read from SIEVE_API_KEY and SIEVE_API_KEY_1..N. Without any,
the service runs unauthenticated; bind it to localhost in that case.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	def := config.Default().Server
	cmd.Flags().String("host", def.Host, "gRPC server host")
	cmd.Flags().Int("port", def.Port, "gRPC server port")
	cmd.Flags().Duration("timeout", def.RequestTimeout, "per-request timeout")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}

	var authenticator *auth.Authenticator
	if keys := config.APIKeys(); len(keys) > 0 {
		authenticator, err = auth.NewAuthenticator(keys)
		if err != nil {
			return fmt.Errorf("failed to load API keys: %w", err)
		}
	}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	service, err := api.NewQueryService(a.engine(cfg), store, tasks.Kind(cfg.Query.DefaultKind), a.logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg.Server, service, authenticator, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	a.logger.Info("starting sieve query service", "version", Version, "addr", cfg.Server.Address())
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return grpcServer.Shutdown(context.Background())
	}
}

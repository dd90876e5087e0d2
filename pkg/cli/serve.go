package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/recapd/relay/pkg/cli/config"
	httpctrl "github.com/recapd/relay/pkg/controller/http"
	"github.com/recapd/relay/pkg/usecase"
	"github.com/recapd/relay/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var adminToken string
	var repoCfg config.Repository
	var upstreamCfg config.Upstream
	var platformsCfg config.Platforms

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RELAY_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "admin-api-token",
			Usage:       "Token for the admin API (admin endpoints are disabled when empty)",
			Sources:     cli.EnvVars("RELAY_ADMIN_API_TOKEN"),
			Destination: &adminToken,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, upstreamCfg.Flags()...)
	flags = append(flags, platformsCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			// Initialize upstream bot infrastructure client
			infraSvc, err := upstreamCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure upstream client")
			}

			// Build platform registry from built-ins plus the optional config file
			registry, err := platformsCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure platform registry")
			}

			uc := usecase.New(repo,
				usecase.WithInfra(infraSvc),
				usecase.WithPlatforms(registry),
			)

			if adminToken == "" {
				logging.Default().Warn("Admin API token not configured, admin endpoints are disabled")
			}

			srv := httpctrl.New(uc,
				httpctrl.WithAdminToken(adminToken),
				httpctrl.WithPlatforms(registry),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

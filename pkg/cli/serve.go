package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/itemdeck/pkg/cli/config"
	httpctrl "github.com/secmon-lab/itemdeck/pkg/controller/http"
	"github.com/secmon-lab/itemdeck/pkg/service/worker"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/secmon-lab/itemdeck/pkg/utils/async"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var refreshInterval time.Duration
	var appCfg config.App
	var gatewayCfg config.Gateway

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ITEMDECK_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Reload items from the gateway periodically (0 disables; needs a backend that keeps writes)",
			Sources:     cli.EnvVars("ITEMDECK_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, gatewayCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}
			logging.Default().Info("Configuration loaded", "app", app, "gateway", gatewayCfg)

			if err := gatewayCfg.ValidateRefresh(refreshInterval); err != nil {
				return err
			}

			gateway, closeGateway, err := gatewayCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize gateway")
			}
			defer func() {
				if err := closeGateway(); err != nil {
					logging.Default().Error("failed to close gateway", "error", err.Error())
				}
			}()

			uc := usecase.New(gateway,
				usecase.WithSearchDebounce(app.Debounce()),
				usecase.WithStoreOptions(usecase.WithSearchTerm(app.UI.InitialSearch)),
			)
			defer uc.Close()

			httpHandler, err := httpctrl.New(uc, httpctrl.WithPageTitle(app.UI.Title))
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			defer httpHandler.Close()

			// Initial load runs in the background so the page can show the
			// loading state. Transport failures are already reported by the store.
			if refreshInterval > 0 {
				refresher, err := worker.NewRefreshWorker(uc.Items, refreshInterval)
				if err != nil {
					return goerr.Wrap(err, "failed to create refresh worker")
				}
				refresher.Start(ctx)
				defer refresher.Stop()
			} else {
				async.Dispatch(ctx, func(ctx context.Context) error {
					if err := uc.Items.Load(ctx); err != nil && !errors.Is(err, usecase.ErrTransport) {
						return err
					}
					return nil
				})
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

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

				// End event streams first so Shutdown does not wait on them
				httpHandler.Close()

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

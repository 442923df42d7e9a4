package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/intake/pkg/cli/config"
	httpctrl "github.com/secmon-lab/intake/pkg/controller/http"
	"github.com/secmon-lab/intake/pkg/service/worker"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var staticDir string
	var maxUploadSize int
	var svcCfg serviceConfig
	var authCfg config.Auth

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("INTAKE_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "static-dir",
			Usage:       "Directory of the built dashboard served for non-API paths",
			Sources:     cli.EnvVars("INTAKE_STATIC_DIR"),
			Destination: &staticDir,
		},
		&cli.IntFlag{
			Name:        "max-upload-size",
			Usage:       "Maximum size in bytes of an import file or attachment",
			Value:       32 << 20,
			Sources:     cli.EnvVars("INTAKE_MAX_UPLOAD_SIZE"),
			Destination: &maxUploadSize,
		},
	}

	// Add shared config flags
	flags = append(flags, svcCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			authn, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logging.Default().Warn("Running in no-auth mode (development only)", "auth", authCfg)
			} else {
				logging.Default().Info("Google ID token authentication enabled", "auth", authCfg)
			}

			repo, uc, err := svcCfg.Configure(ctx, usecase.WithAuth(authn))
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			// N+1 Prevention Policy: Worker uses DeleteAll → SaveMany (Replace strategy)
			staffWorker, err := svcCfg.slack.ConfigureWorker(repo.Staff(), authCfg.AllowedDomains())
			if err != nil {
				return err
			}
			if staffWorker != nil {
				if err := staffWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start staff refresh worker")
				}
			} else {
				logging.Default().Info("Slack Bot Token not configured, staff directory will not be refreshed")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithMaxUploadSize(int64(maxUploadSize)),
			}
			if staticDir != "" {
				if _, err := os.Stat(staticDir); err != nil {
					return goerr.Wrap(err, "static directory is not accessible", goerr.V("dir", staticDir))
				}
				httpOpts = append(httpOpts, httpctrl.WithStaticFS(os.DirFS(staticDir)))
			}

			httpHandler, err := httpctrl.New(uc, httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			return runServer(ctx, server, staffWorker)
		},
	}
}

func runServer(ctx context.Context, server *http.Server, staffWorker *worker.StaffRefreshWorker) error {
	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		logging.Default().Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- goerr.Wrap(err, "failed to start server", goerr.V("addr", server.Addr))
		}
	}()

	select {
	case err := <-errCh:
		if staffWorker != nil {
			staffWorker.Stop()
		}
		return err
	case sig := <-sigCh:
		logging.Default().Info("Received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logging.Default().Info("Context canceled, shutting down")
	}

	// Stop the worker first so it does not write during shutdown
	if staffWorker != nil {
		staffWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "failed to shutdown server gracefully")
	}

	logging.Default().Info("Server shutdown completed")
	return nil
}

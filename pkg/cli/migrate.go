package cli

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/cli/config"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var initCounter int
	var force bool

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "init-counter",
			Usage:       "Provision the case number counter with this last used number",
			Value:       -1,
			Destination: &initCounter,
		},
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Overwrite an existing counter",
			Destination: &force,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Provision the case number counter",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			if initCounter < 0 {
				current, err := repo.Case().GetCounter(ctx)
				switch {
				case errors.Is(err, model.ErrCounterNotFound):
					logger.Warn("Case number counter is not provisioned. Run with --init-counter=<last case number>.")
					return nil
				case err != nil:
					return goerr.Wrap(err, "failed to read counter")
				}
				logger.Info("Case number counter", "count", current)
				return nil
			}

			logger.Info("Provisioning case number counter",
				"value", initCounter,
				"force", force,
				"repository", repoCfg)

			if err := repo.Case().InitCounter(ctx, int64(initCounter), force); err != nil {
				if errors.Is(err, model.ErrCounterExists) {
					return goerr.Wrap(err, "counter already exists, use --force to overwrite")
				}
				return goerr.Wrap(err, "failed to provision counter")
			}

			logger.Info("Case number counter provisioned", "count", initCounter)
			return nil
		},
	}
}

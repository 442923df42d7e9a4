package cli

import (
	"context"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/async"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/secmon-lab/intake/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var svcCfg serviceConfig
	var format string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Usage:       "Input format [csv|xlsx] (default: from the file extension)",
			Destination: &format,
		},
	}
	flags = append(flags, svcCfg.Flags()...)

	return &cli.Command{
		Name:      "import",
		Usage:     "Import past cases from a CSV or Excel file",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one input file is required", goerr.V("args", c.Args().Slice()))
			}
			path := c.Args().First()

			importFormat := usecase.ImportFormat(format)
			if format == "" {
				f, err := usecase.ImportFormatFromFileName(filepath.Base(path))
				if err != nil {
					return err
				}
				importFormat = f
			}

			// Side effects run inline so the process does not exit before
			// documents are provisioned
			repo, uc, err := svcCfg.Configure(ctx, usecase.WithAsync(async.Sync))
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			file, err := safe.OpenFile(path)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, file)

			result, err := uc.Import.Import(ctx, file, importFormat)
			if err != nil {
				return goerr.Wrap(err, "failed to import cases", goerr.V("path", path))
			}

			for _, skip := range result.Skipped {
				logging.Default().Warn("Row skipped", "line", skip.Line, "name", skip.Name, "reason", skip.Reason)
			}
			logging.Default().Info("Import completed",
				"path", path,
				"imported", result.Count,
				"skipped", len(result.Skipped))
			return nil
		},
	}
}

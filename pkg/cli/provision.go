package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdProvision() *cli.Command {
	var svcCfg serviceConfig
	var caseID string
	var force bool

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "case-id",
			Usage:       "ID of the case whose document is generated again",
			Required:    true,
			Destination: &caseID,
		},
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Generate a new document even when the case is already provisioned",
			Destination: &force,
		},
	}
	flags = append(flags, svcCfg.Flags()...)

	return &cli.Command{
		Name:  "provision",
		Usage: "Retry document provisioning of a case",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, uc, err := svcCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			updated, err := uc.Dispatch.RetryProvisioning(ctx, model.CaseID(caseID), force)
			if err != nil {
				return goerr.Wrap(err, "failed to provision case", goerr.V(model.CaseIDKey, caseID))
			}

			logging.Default().Info("Case provisioned",
				"case_id", updated.ID,
				"case_number", updated.CaseNumber,
				"system_status", updated.SystemStatus,
				"document_url", updated.DocumentURL)
			return nil
		},
	}
}

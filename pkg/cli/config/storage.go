package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/service/storage"
	"github.com/urfave/cli/v3"
)

// Storage holds the Cloud Storage settings for record attachments
type Storage struct {
	bucket string
	prefix string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket for record attachments",
			Category:    "Storage",
			Sources:     cli.EnvVars("INTAKE_STORAGE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object name prefix inside the bucket",
			Category:    "Storage",
			Value:       "attachments",
			Sources:     cli.EnvVars("INTAKE_STORAGE_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure returns nil when no bucket is set. Attachments are then
// rejected.
func (x *Storage) Configure(ctx context.Context) (storage.Service, error) {
	if x.bucket == "" {
		return nil, nil
	}

	svc, err := storage.New(ctx, x.bucket, []storage.Option{storage.WithPrefix(x.prefix)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize storage service", goerr.V("bucket", x.bucket))
	}
	return svc, nil
}

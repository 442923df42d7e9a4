package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/cli/config"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// serviceConfig bundles the flag groups shared by every command that runs
// use cases
type serviceConfig struct {
	app     config.App
	repo    config.Repository
	google  config.Google
	slack   config.Slack
	storage config.Storage
	gemini  config.Gemini
}

func (x *serviceConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.app.Flags()...)
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.google.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.storage.Flags()...)
	flags = append(flags, x.gemini.Flags()...)
	return flags
}

// Configure opens the repository and wires every configured integration.
// The caller closes the returned repository.
func (x *serviceConfig) Configure(ctx context.Context, extra ...usecase.Option) (interfaces.Repository, *usecase.UseCases, error) {
	logger := logging.Default()

	appCfg, err := x.app.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load application config")
	}

	opts, err := appCfg.UseCaseOptions()
	if err != nil {
		return nil, nil, err
	}

	googleOpts, err := x.google.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, googleOpts...)

	notifier, err := x.slack.ConfigureNotifier(appCfg)
	if err != nil {
		return nil, nil, err
	}
	if notifier != nil {
		opts = append(opts, usecase.WithNotifier(notifier))
		logger.Info("Slack notification enabled")
	} else {
		logger.Info("Slack webhook URL not configured, new cases will not be announced")
	}

	storageSvc, err := x.storage.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	if storageSvc != nil {
		opts = append(opts, usecase.WithStorage(storageSvc))
	}

	llmClient, err := x.gemini.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}
	if llmClient != nil {
		opts = append(opts, usecase.WithLLMClient(llmClient))
	} else {
		logger.Info("Gemini not configured, the assistant is disabled")
	}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	logger.Info("Service configuration",
		"app", x.app,
		"repository", x.repo,
		"google", x.google,
		"slack", x.slack,
		"storage", x.storage,
		"gemini", x.gemini,
	)

	return repo, usecase.New(repo, append(opts, extra...)...), nil
}

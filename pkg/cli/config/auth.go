package config

import (
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Auth configures the identity gate in front of the API
type Auth struct {
	clientID       string
	allowedDomains []string
	noAuthEmail    string
}

func (x *Auth) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "google-client-id",
			Usage:       "OAuth client ID the Google ID tokens are issued for (token audience)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("INTAKE_GOOGLE_CLIENT_ID"),
			Destination: &x.clientID,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-domain",
			Usage:       "Email domain allowed to sign in (repeatable). Also filters the staff directory.",
			Category:    "Authentication",
			Sources:     cli.EnvVars("INTAKE_ALLOWED_DOMAINS"),
			Destination: &x.allowedDomains,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and act as the given email (development only). Example: --no-auth=staff@example.org",
			Category:    "Authentication",
			Sources:     cli.EnvVars("INTAKE_NO_AUTH"),
			Destination: &x.noAuthEmail,
		},
	}
}

func (x Auth) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", x.clientID),
		slog.Any("allowed_domains", x.allowedDomains),
		slog.Bool("no_auth", x.noAuthEmail != ""),
	)
}

// AllowedDomains returns the normalized domain allowlist
func (x *Auth) AllowedDomains() []string {
	var domains []string
	for _, d := range x.allowedDomains {
		for _, part := range strings.Split(d, ",") {
			if part = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(part)), "@"); part != "" {
				domains = append(domains, part)
			}
		}
	}
	return domains
}

// IsNoAuthMode returns true if no-auth mode is enabled
func (x *Auth) IsNoAuthMode() bool {
	return x.noAuthEmail != ""
}

// Configure returns the authenticator. --no-auth takes precedence over the
// client ID.
func (x *Auth) Configure() (usecase.Authenticator, error) {
	if x.noAuthEmail != "" {
		if !strings.Contains(x.noAuthEmail, "@") {
			return nil, goerr.Wrap(ErrInvalidConfig, "--no-auth requires an email address",
				goerr.V(FlagKey, "no-auth"), goerr.V("value", x.noAuthEmail))
		}
		if x.clientID != "" {
			logging.Default().Warn("--no-auth is set, ignoring --google-client-id")
		}
		return usecase.NewNoAuthnUseCase(x.noAuthEmail), nil
	}

	if x.clientID == "" {
		return nil, goerr.Wrap(ErrMissingFlag, "authentication is required: set --google-client-id or use --no-auth",
			goerr.V(FlagKey, "google-client-id"))
	}

	return usecase.NewAuthUseCase(x.clientID, usecase.WithAllowedDomains(x.AllowedDomains()...)), nil
}

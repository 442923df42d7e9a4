package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const DefaultTimezone = "Asia/Tokyo"

// AppConfig represents the application configuration file
type AppConfig struct {
	Organization      string `toml:"organization"`
	BaseURL           string `toml:"base_url"`
	SlackMention      string `toml:"slack_mention"`
	PastCaseLimit     int    `toml:"past_case_limit"`
	DocumentTextLimit int    `toml:"document_text_limit"`
	Timezone          string `toml:"timezone"`
}

// Validate checks the values and fills in defaults for the missing ones
func (a *AppConfig) Validate() error {
	if a.Organization == "" {
		a.Organization = usecase.DefaultOrganization
	}
	if a.PastCaseLimit == 0 {
		a.PastCaseLimit = usecase.DefaultPastCaseLimit
	}
	if a.DocumentTextLimit == 0 {
		a.DocumentTextLimit = usecase.DefaultDocumentTextLimit
	}
	if a.Timezone == "" {
		a.Timezone = DefaultTimezone
	}
	a.BaseURL = strings.TrimRight(a.BaseURL, "/")

	if a.PastCaseLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "past_case_limit must not be negative",
			goerr.V(FieldKey, "past_case_limit"), goerr.V("value", a.PastCaseLimit))
	}
	if a.DocumentTextLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "document_text_limit must not be negative",
			goerr.V(FieldKey, "document_text_limit"), goerr.V("value", a.DocumentTextLimit))
	}
	if _, err := a.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured time zone
func (a *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidTimezone, err.Error(), goerr.V("timezone", a.Timezone))
	}
	return loc, nil
}

// UseCaseOptions converts the file settings into use case options
func (a *AppConfig) UseCaseOptions() ([]usecase.Option, error) {
	loc, err := a.Location()
	if err != nil {
		return nil, err
	}
	return []usecase.Option{
		usecase.WithOrganization(a.Organization),
		usecase.WithPastCaseLimit(a.PastCaseLimit),
		usecase.WithDocumentTextLimit(a.DocumentTextLimit),
		usecase.WithLocation(loc),
	}, nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path), goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// App is the flag group selecting the configuration file. Flags given on
// the command line override the file.
type App struct {
	path     string
	baseURL  string
	timezone string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the application config file (TOML)",
			Sources:     cli.EnvVars("INTAKE_CONFIG"),
			Destination: &x.path,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the dashboard, used for links in notifications",
			Sources:     cli.EnvVars("INTAKE_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.StringFlag{
			Name:        "timezone",
			Usage:       "Time zone of document dates and imported dates (default Asia/Tokyo)",
			Sources:     cli.EnvVars("INTAKE_TIMEZONE"),
			Destination: &x.timezone,
		},
	}
}

func (x App) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
		slog.String("base_url", x.baseURL),
		slog.String("timezone", x.timezone),
	)
}

// Configure loads the file when --config is set, applies the flag
// overrides and validates the result
func (x *App) Configure() (*AppConfig, error) {
	cfg := &AppConfig{}
	if x.path != "" {
		loaded, err := LoadAppConfiguration(x.path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if x.baseURL != "" {
		cfg.BaseURL = x.baseURL
	}
	if x.timezone != "" {
		cfg.Timezone = x.timezone
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

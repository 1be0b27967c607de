package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const DefaultPageTitle = "Item List"

// AppConfig holds UI defaults read from the TOML configuration file
type AppConfig struct {
	UI UIConfig `toml:"ui"`
}

type UIConfig struct {
	Title          string `toml:"title"`
	SearchDebounce string `toml:"search_debounce"`
	InitialSearch  string `toml:"initial_search"`
}

// DefaultAppConfig returns the configuration used when no file is given
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		UI: UIConfig{
			Title:          DefaultPageTitle,
			SearchDebounce: usecase.DefaultSearchDebounce.String(),
		},
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if strings.TrimSpace(a.UI.Title) == "" {
		return goerr.Wrap(ErrInvalidConfig, "title must not be empty", goerr.V(FieldKey, "ui.title"))
	}

	d, err := time.ParseDuration(a.UI.SearchDebounce)
	if err != nil {
		return goerr.Wrap(ErrInvalidConfig, "invalid search debounce",
			goerr.V(FieldKey, "ui.search_debounce"),
			goerr.V("value", a.UI.SearchDebounce),
		)
	}
	if d <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "search debounce must be positive",
			goerr.V(FieldKey, "ui.search_debounce"),
			goerr.V("value", a.UI.SearchDebounce),
		)
	}

	return nil
}

// Debounce returns the search debounce window. Call after Validate.
func (a *AppConfig) Debounce() time.Duration {
	d, err := time.ParseDuration(a.UI.SearchDebounce)
	if err != nil || d <= 0 {
		return usecase.DefaultSearchDebounce
	}
	return d
}

func (a AppConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("title", a.UI.Title),
		slog.String("search_debounce", a.UI.SearchDebounce),
		slog.String("initial_search", a.UI.InitialSearch),
	)
}

// LoadAppConfiguration loads the application configuration from a TOML file.
// Missing keys keep their defaults.
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	config := DefaultAppConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()),
		)
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return config, nil
}

// App holds the --config flag
type App struct {
	path string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Destination: &x.path,
			Sources:     cli.EnvVars("ITEMDECK_CONFIG"),
		},
	}
}

// Configure loads the configuration file, or returns defaults when no path
// is set.
func (x *App) Configure() (*AppConfig, error) {
	if x.path == "" {
		return DefaultAppConfig(), nil
	}
	return LoadAppConfiguration(x.path)
}

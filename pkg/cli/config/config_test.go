package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/itemdeck/pkg/cli/config"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  error
		title    string
		debounce time.Duration
		search   string
	}{
		{
			name: "full configuration",
			content: `
[ui]
title = "Hire me"
search_debounce = "500ms"
initial_search = "foo"
`,
			title:    "Hire me",
			debounce: 500 * time.Millisecond,
			search:   "foo",
		},
		{
			name:     "empty file keeps defaults",
			content:  "",
			title:    config.DefaultPageTitle,
			debounce: usecase.DefaultSearchDebounce,
		},
		{
			name: "partial configuration",
			content: `
[ui]
initial_search = "bar"
`,
			title:    config.DefaultPageTitle,
			debounce: usecase.DefaultSearchDebounce,
			search:   "bar",
		},
		{
			name: "blank title",
			content: `
[ui]
title = "  "
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "bad duration",
			content: `
[ui]
search_debounce = "soon"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "negative duration",
			content: `
[ui]
search_debounce = "-1s"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "malformed TOML",
			content: `[ui`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadAppConfiguration(writeConfig(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}

			gt.NoError(t, err).Required()
			gt.Value(t, cfg.UI.Title).Equal(tt.title)
			gt.Value(t, cfg.Debounce()).Equal(tt.debounce)
			gt.Value(t, cfg.UI.InitialSearch).Equal(tt.search)
		})
	}
}

func TestLoadAppConfiguration_NotFound(t *testing.T) {
	_, err := config.LoadAppConfiguration(filepath.Join(t.TempDir(), "missing.toml"))
	gt.Error(t, err).Is(config.ErrConfigNotFound)
}

func TestApp_Configure(t *testing.T) {
	t.Run("no path returns defaults", func(t *testing.T) {
		cfg, err := config.NewAppForTest("").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.UI.Title).Equal(config.DefaultPageTitle)
		gt.NoError(t, cfg.Validate())
	})

	t.Run("path is loaded", func(t *testing.T) {
		path := writeConfig(t, "[ui]\ntitle = \"Mine\"\n")
		cfg, err := config.NewAppForTest(path).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.UI.Title).Equal("Mine")
	})
}

package cli_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/itemdeck/pkg/cli"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
)

func keepDefaultLogger(t *testing.T) {
	t.Helper()
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })
}

func postsServer(t *testing.T, posts []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(posts)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRun_ValidateCommand_ValidConfig(t *testing.T) {
	keepDefaultLogger(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[ui]
title = "Items"
search_debounce = "250ms"
`
	gt.NoError(t, os.WriteFile(configPath, []byte(content), 0o600)).Required()

	err := cli.Run(context.Background(), []string{"itemdeck", "--log-output", "stderr", "validate", "--config", configPath}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_InvalidConfig(t *testing.T) {
	keepDefaultLogger(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[ui]
search_debounce = "later"
`
	gt.NoError(t, os.WriteFile(configPath, []byte(content), 0o600)).Required()

	err := cli.Run(context.Background(), []string{"itemdeck", "--log-output", "stderr", "validate", "--config", configPath}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_ValidateCommand_MissingConfig(t *testing.T) {
	keepDefaultLogger(t)
	configPath := filepath.Join(t.TempDir(), "nonexistent.toml")

	err := cli.Run(context.Background(), []string{"itemdeck", "--log-output", "stderr", "validate", "--config", configPath}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_ValidateCommand_GatewayCheck(t *testing.T) {
	keepDefaultLogger(t)

	t.Run("unique titles pass", func(t *testing.T) {
		server := postsServer(t, []map[string]any{
			{"id": 1, "title": "Foo", "body": "a", "userId": 1},
			{"id": 2, "title": "Bar", "body": "b", "userId": 1},
		})

		err := cli.Run(context.Background(), []string{
			"itemdeck", "--log-output", "stderr", "validate",
			"--check-gateway",
			"--placeholder-base-url", server.URL,
		}, "test")
		gt.NoError(t, err)
	})

	t.Run("duplicate titles fail", func(t *testing.T) {
		server := postsServer(t, []map[string]any{
			{"id": 1, "title": "Foo", "body": "a", "userId": 1},
			{"id": 2, "title": "foo ", "body": "b", "userId": 1},
		})

		err := cli.Run(context.Background(), []string{
			"itemdeck", "--log-output", "stderr", "validate",
			"--check-gateway",
			"--placeholder-base-url", server.URL,
		}, "test")
		gt.Error(t, err).Is(model.ErrDuplicateTitle)
	})
}

func TestFindTitleConflicts(t *testing.T) {
	items := []*model.Item{
		{ID: 1, Title: "Foo"},
		{ID: 2, Title: "Bar"},
		{ID: 3, Title: " FOO"},
	}

	conflicts := cli.FindTitleConflicts(items)
	gt.Array(t, conflicts).Length(1).Required()
	gt.Value(t, conflicts[0].First.ID).Equal(model.ItemID(1))
	gt.Value(t, conflicts[0].Second.ID).Equal(model.ItemID(3))

	gt.Array(t, cli.FindTitleConflicts(items[:2])).Length(0)
}

package cli_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/itemdeck/pkg/cli"
	"github.com/secmon-lab/itemdeck/pkg/cli/config"
)

func TestRun_ServeCommand_RefreshNeedsDurableBackend(t *testing.T) {
	keepDefaultLogger(t)

	// Fails before opening the listener, so the address is never bound
	err := cli.Run(context.Background(), []string{
		"itemdeck", "--log-output", "stderr",
		"serve",
		"--addr", "127.0.0.1:0",
		"--refresh-interval", "1s",
		"--gateway-backend", config.BackendPlaceholder,
	}, "test")
	gt.Error(t, err).Is(config.ErrRefreshNotDurable)
}

package cli

import (
	"context"

	"github.com/secmon-lab/itemdeck/pkg/cli/config"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func newApp(version string) *cli.Command {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	flags := loggerCfg.Flags()
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "itemdeck",
		Usage:   "Item manager backed by a remote REST placeholder resource",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Debug("Starting itemdeck", "logger", loggerCfg, "sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdItems(),
			cmdValidate(),
		},
	}
}

func Run(ctx context.Context, args []string, version string) error {
	app := newApp(version)

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

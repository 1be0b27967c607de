package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/cli/config"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// titleConflict is a pair of items whose titles collide case-insensitively.
type titleConflict struct {
	First  *model.Item
	Second *model.Item
}

func findTitleConflicts(items []*model.Item) []titleConflict {
	var conflicts []titleConflict
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if model.SameTitle(items[i].Title, items[j].Title) {
				conflicts = append(conflicts, titleConflict{First: items[i], Second: items[j]})
			}
		}
	}
	return conflicts
}

func cmdValidate() *cli.Command {
	var appCfg config.App
	var gatewayCfg config.Gateway
	var checkGateway bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, gatewayCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-gateway",
		Usage:       "Also load items from the gateway and check title uniqueness",
		Destination: &checkGateway,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the configuration file and optionally the remote collection",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			logger.Info("Configuration validation passed", "app", app)

			if !checkGateway {
				return nil
			}

			gateway, closeGateway, err := gatewayCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize gateway")
			}
			defer func() {
				if err := closeGateway(); err != nil {
					logger.Error("failed to close gateway", "error", err.Error())
				}
			}()

			items, err := gateway.List(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list items")
			}

			conflicts := findTitleConflicts(items)
			for _, cf := range conflicts {
				logger.Warn("Duplicate title found",
					"first_id", cf.First.ID,
					"second_id", cf.Second.ID,
					"title", cf.First.Title,
				)
			}
			if len(conflicts) > 0 {
				return goerr.Wrap(model.ErrDuplicateTitle, "gateway collection has duplicate titles",
					goerr.V("count", len(conflicts)))
			}

			logger.Info("Gateway check passed", "item_count", len(items))
			return nil
		},
	}
}

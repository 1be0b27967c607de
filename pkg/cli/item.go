package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/itemdeck/pkg/cli/config"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
)

var (
	idColor     = color.New(color.FgCyan, color.Bold)
	localColor  = color.New(color.FgYellow)
	remoteColor = color.New(color.FgGreen)
	titleColor  = color.New(color.Bold)
	errColor    = color.New(color.FgRed)
)

func printItem(w io.Writer, item *model.Item) {
	origin := remoteColor.Sprint(item.ID.Origin())
	if item.ID.IsLocal() {
		origin = localColor.Sprint(item.ID.Origin())
	}
	fmt.Fprintf(w, "%s [%s] %s\n    %s\n",
		idColor.Sprintf("#%d", item.ID),
		origin,
		titleColor.Sprint(item.Title),
		item.Description,
	)
}

// withLoadedStore builds a store over the configured gateway and loads it, so
// duplicate-title checks see the remote collection.
func withLoadedStore(ctx context.Context, w io.Writer, cfg *config.Gateway, fn func(store *usecase.ItemStore) error) error {
	gateway, closeGateway, err := cfg.Configure(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize gateway")
	}
	defer func() {
		if err := closeGateway(); err != nil {
			logging.Default().Error("failed to close gateway", "error", err.Error())
		}
	}()

	store := usecase.NewItemStore(gateway)
	if err := store.Load(ctx); err != nil {
		return failure(w, err)
	}
	return fn(store)
}

// failure prints the message the UI would show and returns err for the exit
// status.
func failure(w io.Writer, err error) error {
	fmt.Fprintln(w, errColor.Sprint(usecase.UserMessage(err)))
	return err
}

func cmdItems() *cli.Command {
	var gatewayCfg config.Gateway

	return &cli.Command{
		Name:  "items",
		Usage: "Operate on items without the web UI",
		Flags: gatewayCfg.Flags(),
		Commands: []*cli.Command{
			cmdItemsList(&gatewayCfg),
			cmdItemsAdd(&gatewayCfg),
			cmdItemsUpdate(&gatewayCfg),
			cmdItemsDelete(&gatewayCfg),
		},
	}
}

func cmdItemsList(cfg *config.Gateway) *cli.Command {
	var search string

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List items, optionally filtered by a search term",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"q"},
				Usage:       "Case-insensitive search over title and description",
				Destination: &search,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			return withLoadedStore(ctx, w, cfg, func(store *usecase.ItemStore) error {
				store.SetSearchTerm(search)
				snap := store.Snapshot()

				if len(snap.FilteredItems) == 0 {
					if search != "" {
						fmt.Fprintf(w, "No items match %q\n", search)
					} else {
						fmt.Fprintln(w, "No items")
					}
					return nil
				}
				for _, item := range snap.FilteredItems {
					printItem(w, item)
				}
				return nil
			})
		},
	}
}

func itemFieldFlags(title, description *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "Item title",
			Required:    true,
			Destination: title,
		},
		&cli.StringFlag{
			Name:        "description",
			Aliases:     []string{"d"},
			Usage:       "Item description",
			Required:    true,
			Destination: description,
		},
	}
}

func idFlag(id *int64) cli.Flag {
	return &cli.Int64Flag{
		Name:        "id",
		Usage:       "Item ID",
		Required:    true,
		Destination: id,
	}
}

func cmdItemsAdd(cfg *config.Gateway) *cli.Command {
	var title, description string

	return &cli.Command{
		Name:  "add",
		Usage: "Create an item",
		Flags: itemFieldFlags(&title, &description),
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			return withLoadedStore(ctx, w, cfg, func(store *usecase.ItemStore) error {
				created, err := store.Add(ctx, title, description)
				if err != nil {
					return failure(w, err)
				}
				printItem(w, created)
				return nil
			})
		},
	}
}

func cmdItemsUpdate(cfg *config.Gateway) *cli.Command {
	var id int64
	var title, description string

	flags := []cli.Flag{idFlag(&id)}
	flags = append(flags, itemFieldFlags(&title, &description)...)

	return &cli.Command{
		Name:  "update",
		Usage: "Replace the title and description of an item",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			return withLoadedStore(ctx, w, cfg, func(store *usecase.ItemStore) error {
				if err := store.BeginEdit(model.ItemID(id)); err != nil {
					return failure(w, err)
				}
				updated, err := store.Update(ctx, title, description)
				if err != nil {
					return failure(w, err)
				}
				printItem(w, updated)
				return nil
			})
		},
	}
}

func cmdItemsDelete(cfg *config.Gateway) *cli.Command {
	var id int64

	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Usage:   "Delete an item",
		Flags:   []cli.Flag{idFlag(&id)},
		Action: func(ctx context.Context, c *cli.Command) error {
			w := c.Root().Writer
			return withLoadedStore(ctx, w, cfg, func(store *usecase.ItemStore) error {
				if err := store.Remove(ctx, model.ItemID(id)); err != nil {
					return failure(w, err)
				}
				fmt.Fprintf(w, "Deleted %s\n", idColor.Sprintf("#%d", id))
				return nil
			})
		},
	}
}

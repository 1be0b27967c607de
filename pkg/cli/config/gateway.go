package config

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/interfaces"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/repository/firestore"
	"github.com/secmon-lab/itemdeck/pkg/repository/memory"
	"github.com/secmon-lab/itemdeck/pkg/service/placeholder"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	BackendPlaceholder = "placeholder"
	BackendMemory      = "memory"
	BackendFirestore   = "firestore"
)

// Gateway holds CLI flags selecting and tuning the item resource backend
type Gateway struct {
	backend    string
	baseURL    string
	pageSize   int64
	localDelay time.Duration
	timeout    time.Duration
	projectID  string
	databaseID string
}

// Flags returns CLI flags for gateway configuration
func (x *Gateway) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gateway-backend",
			Usage:       "Item resource backend (placeholder, memory or firestore)",
			Category:    "Gateway",
			Value:       BackendPlaceholder,
			Sources:     cli.EnvVars("ITEMDECK_GATEWAY_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "placeholder-base-url",
			Usage:       "Base URL of the placeholder REST resource",
			Category:    "Gateway",
			Value:       placeholder.DefaultBaseURL,
			Sources:     cli.EnvVars("ITEMDECK_PLACEHOLDER_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.Int64Flag{
			Name:        "page-size",
			Usage:       "Number of items taken from the resource on load",
			Category:    "Gateway",
			Value:       placeholder.DefaultPageSize,
			Sources:     cli.EnvVars("ITEMDECK_PAGE_SIZE"),
			Destination: &x.pageSize,
		},
		&cli.DurationFlag{
			Name:        "local-delay",
			Usage:       "Simulated latency for changes to locally created items",
			Category:    "Gateway",
			Value:       placeholder.DefaultLocalDelay,
			Sources:     cli.EnvVars("ITEMDECK_LOCAL_DELAY"),
			Destination: &x.localDelay,
		},
		&cli.DurationFlag{
			Name:        "request-timeout",
			Usage:       "Timeout of a single request to the placeholder resource",
			Category:    "Gateway",
			Value:       placeholder.DefaultTimeout,
			Sources:     cli.EnvVars("ITEMDECK_REQUEST_TIMEOUT"),
			Destination: &x.timeout,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Gateway",
			Sources:     cli.EnvVars("ITEMDECK_FIRESTORE_PROJECT_ID"),
			Destination: &x.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Gateway",
			Sources:     cli.EnvVars("ITEMDECK_FIRESTORE_DATABASE_ID"),
			Destination: &x.databaseID,
		},
	}
}

func (x Gateway) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("base_url", x.baseURL),
		slog.Int64("page_size", x.pageSize),
		slog.Duration("local_delay", x.localDelay),
	)
}

// Backend returns the configured backend type
func (x *Gateway) Backend() string {
	return x.backend
}

// KeepsWrites reports whether items written through the backend are returned
// by later List calls. The placeholder resource accepts writes but forgets them.
func (x *Gateway) KeepsWrites() bool {
	return x.backend != BackendPlaceholder
}

// ValidateRefresh rejects periodic reloads against a backend that forgets
// writes, since each reload would drop items created or edited since startup.
func (x *Gateway) ValidateRefresh(interval time.Duration) error {
	if interval <= 0 || x.KeepsWrites() {
		return nil
	}
	return goerr.Wrap(ErrRefreshNotDurable, "refresh interval is not supported by this backend",
		goerr.V(BackendKey, x.backend),
		goerr.V("refresh_interval", interval.String()),
	)
}

// Configure builds the gateway for the configured backend. The caller must
// call the returned closer when done.
func (x *Gateway) Configure(ctx context.Context) (interfaces.ItemGateway, func() error, error) {
	noop := func() error { return nil }

	if x.pageSize <= 0 {
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "page size must be positive",
			goerr.V(FieldKey, "page-size"), goerr.V("value", x.pageSize))
	}

	switch x.backend {
	case BackendPlaceholder:
		gw, err := placeholder.New(
			placeholder.WithBaseURL(x.baseURL),
			placeholder.WithHTTPClient(&http.Client{Timeout: x.timeout}),
			placeholder.WithPageSize(int(x.pageSize)),
			placeholder.WithLocalDelay(x.localDelay),
			placeholder.WithIDGenerator(model.NewLocalIDGenerator(time.Now().UnixMilli())),
		)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize placeholder gateway")
		}
		logging.Default().Info("Using placeholder gateway", "base_url", x.baseURL)
		return gw, noop, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory gateway (development mode)")
		gw := memory.New(memory.WithPageSize(int(x.pageSize)))
		return gw, gw.Close, nil

	case BackendFirestore:
		if x.projectID == "" {
			return nil, nil, goerr.Wrap(ErrMissingProjectID, "firestore-project-id is required when using firestore backend")
		}
		gw, err := firestore.New(ctx, x.projectID, x.databaseID, firestore.WithPageSize(int(x.pageSize)))
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize firestore gateway")
		}
		logging.Default().Info("Using Firestore gateway",
			"project_id", x.projectID,
			"database_id", x.databaseID,
		)
		return gw, gw.Close, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidBackend, "unknown gateway backend", goerr.V(BackendKey, x.backend))
	}
}

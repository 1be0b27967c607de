package interfaces

import (
	"context"

	"github.com/secmon-lab/itemdeck/pkg/domain/model"
)

// ItemGateway is the remote resource holding items. Every method is a single
// attempt; failures are returned as-is and the caller decides how to recover.
type ItemGateway interface {
	// List fetches the first page of items
	List(ctx context.Context) ([]*model.Item, error)

	// Create stores a new item and returns it with its id
	Create(ctx context.Context, title, description string) (*model.Item, error)

	// Update replaces title and description of an existing item
	Update(ctx context.Context, item *model.Item) (*model.Item, error)

	// Delete removes an item by ID
	Delete(ctx context.Context, id model.ItemID) error
}

package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type itemDocument struct {
	ID          int64  `firestore:"id"`
	Title       string `firestore:"title"`
	Description string `firestore:"description"`
}

func (d *itemDocument) toModel() *model.Item {
	return &model.Item{
		ID:          model.ItemID(d.ID),
		Title:       d.Title,
		Description: d.Description,
	}
}

func (f *Firestore) itemsCollection() string {
	if f.collectionPrefix != "" {
		return f.collectionPrefix + "_items"
	}
	return "items"
}

func (f *Firestore) counterCollection() string {
	if f.collectionPrefix != "" {
		return f.collectionPrefix + "_counters"
	}
	return "counters"
}

func (f *Firestore) itemDoc(id model.ItemID) *firestore.DocumentRef {
	return f.client.Collection(f.itemsCollection()).Doc(fmt.Sprintf("%d", id))
}

func (f *Firestore) getNextID(ctx context.Context) (model.ItemID, error) {
	counterRef := f.client.Collection(f.counterCollection()).Doc("item_counter")

	var nextID int64
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				nextID = 1
				return tx.Set(counterRef, map[string]interface{}{
					"value": nextID,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		currentValue, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get counter value")
		}
		current, ok := currentValue.(int64)
		if !ok {
			return goerr.New("counter value is not an integer", goerr.V("value", currentValue))
		}

		nextID = current + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: nextID},
		})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get next ID")
	}

	id := model.ItemID(nextID)
	if id.IsLocal() {
		return 0, goerr.New("remote id space exhausted", goerr.V(model.ItemIDKey, id))
	}
	return id, nil
}

func (f *Firestore) List(ctx context.Context) ([]*model.Item, error) {
	iter := f.client.Collection(f.itemsCollection()).
		OrderBy("id", firestore.Asc).
		Limit(f.pageSize).
		Documents(ctx)
	defer iter.Stop()

	items := []*model.Item{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate items")
		}

		var itemDoc itemDocument
		if err := doc.DataTo(&itemDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal item", goerr.V("doc_id", doc.Ref.ID))
		}
		items = append(items, itemDoc.toModel())
	}

	return items, nil
}

func (f *Firestore) Create(ctx context.Context, title, description string) (*model.Item, error) {
	id, err := f.getNextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := &itemDocument{
		ID:          int64(id),
		Title:       title,
		Description: description,
	}
	if _, err := f.itemDoc(id).Create(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create item", goerr.V(model.ItemIDKey, id))
	}

	return doc.toModel(), nil
}

func (f *Firestore) Update(ctx context.Context, item *model.Item) (*model.Item, error) {
	docRef := f.itemDoc(item.ID)

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "title", Value: item.Title},
		{Path: "description", Value: item.Description},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V(model.ItemIDKey, item.ID))
		}
		return nil, goerr.Wrap(err, "failed to update item", goerr.V(model.ItemIDKey, item.ID))
	}

	return item.Clone(), nil
}

func (f *Firestore) Delete(ctx context.Context, id model.ItemID) error {
	docRef := f.itemDoc(id)

	// Exists precondition turns a missing document into NotFound instead of a
	// silent no-op.
	if _, err := docRef.Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "item not found", goerr.V(model.ItemIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete item", goerr.V(model.ItemIDKey, id))
	}

	return nil
}

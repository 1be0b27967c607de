// Package firestore keeps items in a Firestore collection. It is a durable
// remote resource: ids come from a transactional counter and stay in the
// remote range.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/interfaces"
)

const DefaultPageSize = 10

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
	pageSize         int
}

var _ interfaces.ItemGateway = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates collections, mainly for tests sharing a
// database.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func WithPageSize(n int) Option {
	return func(f *Firestore) {
		f.pageSize = n
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client:   client,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.pageSize <= 0 {
		_ = client.Close()
		return nil, goerr.New("page size must be positive", goerr.V("page_size", f.pageSize))
	}

	return f, nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

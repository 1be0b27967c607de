// Package memory is an in-process item resource. Unlike the placeholder
// resource it keeps every write, so all ids it hands out are remote-origin.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/interfaces"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
)

const DefaultPageSize = 10

type Memory struct {
	mu       sync.RWMutex
	items    map[model.ItemID]*model.Item
	nextID   model.ItemID
	pageSize int
}

var _ interfaces.ItemGateway = &Memory{}

type Option func(*Memory)

func WithPageSize(n int) Option {
	return func(m *Memory) {
		m.pageSize = n
	}
}

// WithItems seeds records. Ids are assigned in the given order.
func WithItems(items ...model.Item) Option {
	return func(m *Memory) {
		for _, item := range items {
			m.insert(item.Title, item.Description)
		}
	}
}

func New(opts ...Option) *Memory {
	m := &Memory{
		items:    make(map[model.ItemID]*model.Item),
		nextID:   1,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) insert(title, description string) *model.Item {
	created := &model.Item{
		ID:          m.nextID,
		Title:       title,
		Description: description,
	}
	m.nextID++
	m.items[created.ID] = created
	return created.Clone()
}

func (m *Memory) List(ctx context.Context) ([]*model.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*model.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})

	if m.pageSize > 0 && len(items) > m.pageSize {
		items = items[:m.pageSize]
	}
	return items, nil
}

func (m *Memory) Create(ctx context.Context, title, description string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nextID >= model.LocalIDThreshold {
		return nil, goerr.New("remote id space exhausted", goerr.V(model.ItemIDKey, m.nextID))
	}
	return m.insert(title, description), nil
}

func (m *Memory) Update(ctx context.Context, item *model.Item) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[item.ID]; !exists {
		return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V(model.ItemIDKey, item.ID))
	}

	updated := item.Clone()
	m.items[updated.ID] = updated
	return updated.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, id model.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[id]; !exists {
		return goerr.Wrap(ErrNotFound, "item not found", goerr.V(model.ItemIDKey, id))
	}

	delete(m.items, id)
	return nil
}

// Close releases nothing; it exists so every backend can be closed alike.
func (m *Memory) Close() error {
	return nil
}

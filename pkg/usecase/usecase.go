package usecase

import (
	"time"

	"github.com/secmon-lab/itemdeck/pkg/domain/interfaces"
)

type UseCases struct {
	Items  *ItemStore
	Search *SearchInput

	searchWindow time.Duration
	storeOpts    []StoreOption
}

type Option func(*UseCases)

func WithSearchDebounce(window time.Duration) Option {
	return func(uc *UseCases) {
		uc.searchWindow = window
	}
}

func WithStoreOptions(opts ...StoreOption) Option {
	return func(uc *UseCases) {
		uc.storeOpts = append(uc.storeOpts, opts...)
	}
}

func New(gateway interfaces.ItemGateway, opts ...Option) *UseCases {
	uc := &UseCases{
		searchWindow: DefaultSearchDebounce,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Items = NewItemStore(gateway, uc.storeOpts...)
	uc.Search = NewSearchInput(uc.Items, uc.searchWindow)

	return uc
}

// Close stops background work such as pending search input.
func (uc *UseCases) Close() {
	uc.Search.Close()
}

package usecase

import (
	"time"

	"github.com/secmon-lab/itemdeck/pkg/utils/debounce"
)

// DefaultSearchDebounce is the quiet period before typed input becomes the
// search term.
const DefaultSearchDebounce = 300 * time.Millisecond

// SearchInput feeds keystroke-rate input into the store's search term once
// typing pauses.
type SearchInput struct {
	debouncer *debounce.Debouncer[string]
}

func NewSearchInput(store *ItemStore, window time.Duration) *SearchInput {
	if window <= 0 {
		window = DefaultSearchDebounce
	}
	return &SearchInput{
		debouncer: debounce.New(window, store.SetSearchTerm),
	}
}

func (x *SearchInput) Input(term string) {
	x.debouncer.Trigger(term)
}

// Flush applies pending input now.
func (x *SearchInput) Flush() {
	x.debouncer.Flush()
}

func (x *SearchInput) Close() {
	x.debouncer.Stop()
}

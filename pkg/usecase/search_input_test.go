package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
)

func TestSearchInput(t *testing.T) {
	t.Run("applies last input after quiet period", func(t *testing.T) {
		store, _ := loadedStore(t, model.Item{Title: "Foo", Description: "bar"})
		input := usecase.NewSearchInput(store, 20*time.Millisecond)
		t.Cleanup(input.Close)

		input.Input("f")
		input.Input("fo")
		input.Input("zzz")
		gt.Value(t, store.Snapshot().SearchTerm).Equal("")

		time.Sleep(80 * time.Millisecond)
		gt.Value(t, store.Snapshot().SearchTerm).Equal("zzz")
		gt.Array(t, store.Snapshot().FilteredItems).Length(0)
	})

	t.Run("flush applies immediately", func(t *testing.T) {
		store, _ := loadedStore(t, model.Item{Title: "Foo", Description: "bar"})
		input := usecase.NewSearchInput(store, time.Hour)
		t.Cleanup(input.Close)

		input.Input("foo")
		input.Flush()
		gt.Value(t, store.Snapshot().SearchTerm).Equal("foo")
	})

	t.Run("wired through UseCases", func(t *testing.T) {
		uc := usecase.New(newMockGateway(), usecase.WithSearchDebounce(time.Hour))
		t.Cleanup(uc.Close)

		uc.Search.Input("abc")
		uc.Search.Flush()
		gt.Value(t, uc.Items.Snapshot().SearchTerm).Equal("abc")
	})
}

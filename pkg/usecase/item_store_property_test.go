package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/usecase"
	"pgregory.net/rapid"
)

// Small alphabet so that generated titles collide often.
func titleGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[ ]?[aAbB]{1,3}[ ]?`)
}

func descriptionGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z]{1,8}`)
}

func newEmptyStore(t *rapid.T) *usecase.ItemStore {
	store := usecase.NewItemStore(newMockGateway())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return store
}

func hasTitle(items []*model.Item, title string, except model.ItemID) bool {
	for _, item := range items {
		if item.ID != except && model.SameTitle(item.Title, title) {
			return true
		}
	}
	return false
}

func TestProperty_Add_UniqueTitleSucceeds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newEmptyStore(t)
		ctx := context.Background()

		n := rapid.IntRange(0, 5).Draw(t, "seed_count")
		for range n {
			_, _ = store.Add(ctx, titleGen().Draw(t, "seed_title"), "seed")
		}

		title := titleGen().Draw(t, "title")
		desc := descriptionGen().Draw(t, "description")
		before := store.Snapshot().Items

		created, err := store.Add(ctx, title, desc)
		after := store.Snapshot().Items

		if hasTitle(before, title, 0) {
			if !errors.Is(err, model.ErrDuplicateTitle) {
				t.Fatalf("expected duplicate title error, got %v", err)
			}
			if len(after) != len(before) {
				t.Fatalf("collection changed on rejected add: %d -> %d", len(before), len(after))
			}
			return
		}

		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("expected %d items, got %d", len(before)+1, len(after))
		}
		matches := 0
		for _, item := range after {
			if item.Title == strings.TrimSpace(title) && item.Description == desc {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("expected exactly one item with title %q, got %d", title, matches)
		}
		if after[0].ID != created.ID {
			t.Fatalf("created item not prepended")
		}
	})
}

func TestProperty_Update_CollisionRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newEmptyStore(t)
		ctx := context.Background()

		first, err := store.Add(ctx, "alpha", "one")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}
		second, err := store.Add(ctx, "beta", "two")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		target, other := first, second
		if rapid.Bool().Draw(t, "swap") {
			target, other = second, first
		}

		variant := rapid.SampledFrom([]func(string) string{
			strings.ToUpper,
			strings.ToLower,
			func(s string) string { return "  " + s + " " },
		}).Draw(t, "variant")

		if err := store.BeginEdit(target.ID); err != nil {
			t.Fatalf("begin edit failed: %v", err)
		}
		before := store.Snapshot().Items

		_, err = store.Update(ctx, variant(other.Title), "changed")
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}

		after := store.Snapshot().Items
		if len(after) != len(before) {
			t.Fatalf("collection length changed")
		}
		for i := range before {
			if *before[i] != *after[i] {
				t.Fatalf("item %d changed: %+v -> %+v", i, before[i], after[i])
			}
		}
	})
}

func TestProperty_Remove_AbsentIDIsNoop(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newEmptyStore(t)
		ctx := context.Background()

		n := rapid.IntRange(0, 4).Draw(t, "count")
		for i := range n {
			_, _ = store.Add(ctx, string(rune('a'+i)), "d")
		}

		id := model.ItemID(rapid.Int64Range(100, 1<<40).Draw(t, "id"))
		before := store.Snapshot().Items

		err := store.Remove(ctx, id)
		if !errors.Is(err, usecase.ErrItemNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if len(store.Snapshot().Items) != len(before) {
			t.Fatalf("collection changed")
		}
	})
}

func TestProperty_SearchTerm_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newEmptyStore(t)
		ctx := context.Background()

		n := rapid.IntRange(0, 6).Draw(t, "count")
		for range n {
			_, _ = store.Add(ctx, titleGen().Draw(t, "title"), descriptionGen().Draw(t, "desc"))
		}

		term := rapid.StringMatching(`[ ]?[aAbBcd]{0,2}[ ]?`).Draw(t, "term")

		store.SetSearchTerm(term)
		once := store.Snapshot().FilteredItems
		store.SetSearchTerm(term)
		twice := store.Snapshot().FilteredItems

		if len(once) != len(twice) {
			t.Fatalf("filtered view differs: %d vs %d", len(once), len(twice))
		}
		for i := range once {
			if once[i].ID != twice[i].ID {
				t.Fatalf("filtered order differs at %d", i)
			}
		}

		for _, item := range store.Snapshot().Items {
			inView := false
			for _, f := range once {
				if f.ID == item.ID {
					inView = true
				}
			}
			if inView != item.Matches(term) {
				t.Fatalf("item %d inView=%v matches=%v", item.ID, inView, item.Matches(term))
			}
		}
	})
}

// TestProperty_StateMachine drives random intents and checks the store
// against a simple model after each step.
func TestProperty_StateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := newEmptyStore(t)
		ctx := context.Background()
		var expected []model.Item

		ids := func() []model.ItemID {
			out := make([]model.ItemID, 0, len(expected))
			for _, item := range expected {
				out = append(out, item.ID)
			}
			return out
		}

		t.Repeat(map[string]func(*rapid.T){
			"add": func(t *rapid.T) {
				title := titleGen().Draw(t, "title")
				created, err := store.Add(ctx, title, "d")
				if err != nil {
					return
				}
				expected = append([]model.Item{*created}, expected...)
			},
			"update": func(t *rapid.T) {
				if len(expected) == 0 {
					t.Skip("empty")
				}
				id := rapid.SampledFrom(ids()).Draw(t, "id")
				if err := store.BeginEdit(id); err != nil {
					t.Fatalf("begin edit: %v", err)
				}
				title := titleGen().Draw(t, "title")
				updated, err := store.Update(ctx, title, "u")
				if err != nil {
					store.CancelEdit()
					return
				}
				for i := range expected {
					if expected[i].ID == id {
						expected[i] = *updated
					}
				}
			},
			"remove": func(t *rapid.T) {
				if len(expected) == 0 {
					t.Skip("empty")
				}
				id := rapid.SampledFrom(ids()).Draw(t, "id")
				if err := store.Remove(ctx, id); err != nil {
					t.Fatalf("remove: %v", err)
				}
				kept := expected[:0:0]
				for _, item := range expected {
					if item.ID != id {
						kept = append(kept, item)
					}
				}
				expected = kept
			},
			"search": func(t *rapid.T) {
				store.SetSearchTerm(rapid.StringMatching(`[aAbB]{0,2}`).Draw(t, "term"))
			},
			"": func(t *rapid.T) {
				items := store.Snapshot().Items
				if len(items) != len(expected) {
					t.Fatalf("expected %d items, got %d", len(expected), len(items))
				}
				for i := range items {
					if *items[i] != expected[i] {
						t.Fatalf("item %d: expected %+v, got %+v", i, expected[i], *items[i])
					}
					if hasTitle(items, items[i].Title, items[i].ID) {
						t.Fatalf("duplicate title %q", items[i].Title)
					}
				}
			},
		})
	})
}

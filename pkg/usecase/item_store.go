package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/itemdeck/pkg/domain/interfaces"
	"github.com/secmon-lab/itemdeck/pkg/domain/model"
	"github.com/secmon-lab/itemdeck/pkg/utils/errutil"
	"github.com/secmon-lab/itemdeck/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

// Mode is the form the UI shows. EditTarget is set iff Mode is ModeEditing.
type Mode string

const (
	ModeIdle    Mode = "idle"
	ModeAdding  Mode = "adding"
	ModeEditing Mode = "editing"
)

// Snapshot is an immutable copy of the store state.
type Snapshot struct {
	Items         []*model.Item `json:"items"`
	FilteredItems []*model.Item `json:"filteredItems"`
	SearchTerm    string        `json:"searchTerm"`
	EditTarget    *model.Item   `json:"editTarget"`
	Mode          Mode          `json:"mode"`
	IsLoading     bool          `json:"isLoading"`
	IsSubmitting  bool          `json:"isSubmitting"`
	LastError     string        `json:"lastError,omitempty"`
}

type listener struct {
	fn func(Snapshot)
}

// ItemStore is the authoritative item state. It resolves intents against the
// gateway and notifies subscribers after each state change. The state lock is
// never held across a gateway call.
type ItemStore struct {
	gateway interfaces.ItemGateway
	loads   singleflight.Group

	mu           sync.Mutex
	items        []*model.Item
	searchTerm   string
	editTarget   *model.Item
	mode         Mode
	isLoading    bool
	isSubmitting bool
	lastError    string
	listeners    []*listener

	// serializes delivery so listeners observe states in order
	notifyMu sync.Mutex
}

type StoreOption func(*ItemStore)

func WithSearchTerm(term string) StoreOption {
	return func(s *ItemStore) {
		s.searchTerm = term
	}
}

func WithInitialItems(items ...*model.Item) StoreOption {
	return func(s *ItemStore) {
		s.items = cloneItems(items)
	}
}

func NewItemStore(gateway interfaces.ItemGateway, opts ...StoreOption) *ItemStore {
	s := &ItemStore{
		gateway: gateway,
		mode:    ModeIdle,
		items:   []*model.Item{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func cloneItems(items []*model.Item) []*model.Item {
	cloned := make([]*model.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		cloned = append(cloned, item.Clone())
	}
	return cloned
}

// Subscribe registers fn to receive a snapshot after every state change.
// Listeners run synchronously in registration order outside the state lock.
// They must not call mutating store methods from the same goroutine.
func (s *ItemStore) Subscribe(fn func(Snapshot)) func() {
	l := &listener{fn: fn}

	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, cur := range s.listeners {
				if cur == l {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *ItemStore) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := make([]*listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(snap)
	}
}

func (s *ItemStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ItemStore) snapshotLocked() Snapshot {
	items := cloneItems(s.items)
	filtered := make([]*model.Item, 0, len(items))
	for _, item := range items {
		if item.Matches(s.searchTerm) {
			filtered = append(filtered, item)
		}
	}

	return Snapshot{
		Items:         items,
		FilteredItems: filtered,
		SearchTerm:    s.searchTerm,
		EditTarget:    s.editTarget.Clone(),
		Mode:          s.mode,
		IsLoading:     s.isLoading,
		IsSubmitting:  s.isSubmitting,
		LastError:     s.lastError,
	}
}

// Get returns a copy of the item with id, or nil.
func (s *ItemStore) Get(id model.ItemID) *model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id).Clone()
}

func (s *ItemStore) findLocked(id model.ItemID) *model.Item {
	for _, item := range s.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// titleConflictLocked returns the item already using title, ignoring except.
func (s *ItemStore) titleConflictLocked(title string, except *model.ItemID) *model.Item {
	for _, item := range s.items {
		if except != nil && item.ID == *except {
			continue
		}
		if model.SameTitle(item.Title, title) {
			return item
		}
	}
	return nil
}

func (s *ItemStore) transportError(ctx context.Context, err error, op, msg string) error {
	wrapped := goerr.Wrap(ErrTransport, msg,
		goerr.V(model.OperationKey, op),
		goerr.V(MessageKey, msg),
		goerr.V(CauseKey, err.Error()),
	)
	_ = errutil.Handle(ctx, goerr.Wrap(err, "gateway call failed", goerr.V(model.OperationKey, op)), msg)
	return wrapped
}

// transportMessage extracts the user message recorded by transportError.
func transportMessage(err error) string {
	var ge *goerr.Error
	if !errors.As(err, &ge) {
		return ""
	}
	if msg, ok := ge.Values()[MessageKey].(string); ok {
		return msg
	}
	return ""
}

// Load replaces the collection with the gateway's first page. On failure the
// last loaded collection is kept. Concurrent calls share one gateway call.
func (s *ItemStore) Load(ctx context.Context) error {
	_, err, _ := s.loads.Do("load", func() (any, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *ItemStore) load(ctx context.Context) error {
	s.mu.Lock()
	s.isLoading = true
	s.lastError = ""
	s.mu.Unlock()
	s.notify()

	items, err := s.gateway.List(ctx)

	s.mu.Lock()
	s.isLoading = false
	if err != nil {
		s.lastError = MsgLoadFailed
		s.mu.Unlock()
		s.notify()
		return s.transportError(ctx, err, "load", MsgLoadFailed)
	}

	s.items = cloneItems(items)
	if s.editTarget != nil {
		if current := s.findLocked(s.editTarget.ID); current != nil {
			s.editTarget = current.Clone()
		} else {
			s.editTarget = nil
			s.mode = ModeIdle
		}
	}
	s.mu.Unlock()
	s.notify()

	logging.From(ctx).Debug("items loaded", "count", len(items))
	return nil
}

// Add validates and creates an item. The created item is prepended.
func (s *ItemStore) Add(ctx context.Context, title, description string) (*model.Item, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	s.mu.Lock()
	if s.isSubmitting {
		s.mu.Unlock()
		return nil, goerr.Wrap(ErrBusy, "add rejected", goerr.V(model.TitleKey, title))
	}
	candidate := &model.Item{Title: title, Description: description}
	if err := candidate.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if conflict := s.titleConflictLocked(title, nil); conflict != nil {
		s.mu.Unlock()
		return nil, goerr.Wrap(model.ErrDuplicateTitle, "title already in use",
			goerr.V(model.TitleKey, title),
			goerr.V(model.ConflictKey, conflict.ID),
		)
	}
	s.isSubmitting = true
	s.mu.Unlock()
	s.notify()

	created, err := s.gateway.Create(ctx, title, description)
	if err == nil && created == nil {
		err = goerr.New("gateway returned no item")
	}

	s.mu.Lock()
	s.isSubmitting = false
	if err != nil {
		s.lastError = MsgAddFailed
		s.mu.Unlock()
		s.notify()
		return nil, s.transportError(ctx, err, "add", MsgAddFailed)
	}

	stored := &model.Item{ID: created.ID, Title: title, Description: description}
	s.items = append([]*model.Item{stored}, s.items...)
	s.mode = ModeIdle
	s.editTarget = nil
	s.mu.Unlock()
	s.notify()

	logging.From(ctx).Info("item added", model.ItemIDKey, stored.ID, "origin", stored.ID.Origin())
	return stored.Clone(), nil
}

// Update applies new fields to the edit target.
func (s *ItemStore) Update(ctx context.Context, title, description string) (*model.Item, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	s.mu.Lock()
	if s.isSubmitting {
		s.mu.Unlock()
		return nil, goerr.Wrap(ErrBusy, "update rejected", goerr.V(model.TitleKey, title))
	}
	if s.editTarget == nil {
		s.mu.Unlock()
		return nil, ErrNotEditing
	}
	targetID := s.editTarget.ID

	candidate := &model.Item{ID: targetID, Title: title, Description: description}
	if err := candidate.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if conflict := s.titleConflictLocked(title, &targetID); conflict != nil {
		s.mu.Unlock()
		return nil, goerr.Wrap(model.ErrDuplicateTitle, "title already in use",
			goerr.V(model.ItemIDKey, targetID),
			goerr.V(model.TitleKey, title),
			goerr.V(model.ConflictKey, conflict.ID),
		)
	}
	s.isSubmitting = true
	s.mu.Unlock()
	s.notify()

	_, err := s.gateway.Update(ctx, candidate.Clone())

	s.mu.Lock()
	s.isSubmitting = false
	if err != nil {
		s.lastError = MsgUpdateFailed
		s.mu.Unlock()
		s.notify()
		return nil, s.transportError(ctx, err, "update", MsgUpdateFailed)
	}

	for i, item := range s.items {
		if item.ID == targetID {
			s.items[i] = candidate.Clone()
			break
		}
	}
	if s.editTarget != nil && s.editTarget.ID == targetID {
		s.editTarget = nil
		s.mode = ModeIdle
	}
	s.mu.Unlock()
	s.notify()

	logging.From(ctx).Info("item updated", model.ItemIDKey, targetID)
	return candidate, nil
}

// Remove deletes the item with id. Ids not in the collection are rejected
// without a gateway call.
func (s *ItemStore) Remove(ctx context.Context, id model.ItemID) error {
	s.mu.Lock()
	if s.isSubmitting {
		s.mu.Unlock()
		return goerr.Wrap(ErrBusy, "remove rejected", goerr.V(model.ItemIDKey, id))
	}
	if s.findLocked(id) == nil {
		s.mu.Unlock()
		return goerr.Wrap(ErrItemNotFound, "cannot remove", goerr.V(model.ItemIDKey, id))
	}
	s.isSubmitting = true
	s.mu.Unlock()
	s.notify()

	err := s.gateway.Delete(ctx, id)

	s.mu.Lock()
	s.isSubmitting = false
	if err != nil {
		s.lastError = MsgDeleteFailed
		s.mu.Unlock()
		s.notify()
		return s.transportError(ctx, err, "delete", MsgDeleteFailed)
	}

	kept := s.items[:0:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	if s.editTarget != nil && s.editTarget.ID == id {
		s.editTarget = nil
		s.mode = ModeIdle
	}
	s.mu.Unlock()
	s.notify()

	logging.From(ctx).Info("item removed", model.ItemIDKey, id)
	return nil
}

func (s *ItemStore) SetSearchTerm(term string) {
	s.mu.Lock()
	s.searchTerm = term
	s.mu.Unlock()
	s.notify()
}

// BeginEdit opens the edit form for an item in the collection.
func (s *ItemStore) BeginEdit(id model.ItemID) error {
	s.mu.Lock()
	item := s.findLocked(id)
	if item == nil {
		s.mu.Unlock()
		return goerr.Wrap(ErrItemNotFound, "cannot edit", goerr.V(model.ItemIDKey, id))
	}
	s.editTarget = item.Clone()
	s.mode = ModeEditing
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *ItemStore) BeginAdd() {
	s.mu.Lock()
	s.editTarget = nil
	s.mode = ModeAdding
	s.mu.Unlock()
	s.notify()
}

func (s *ItemStore) CancelEdit() {
	s.mu.Lock()
	s.editTarget = nil
	s.mode = ModeIdle
	s.mu.Unlock()
	s.notify()
}

func (s *ItemStore) DismissError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}

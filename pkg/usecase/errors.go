package usecase

import (
	"errors"

	"github.com/secmon-lab/itemdeck/pkg/domain/model"
)

// Sentinel errors for use case layer
var (
	// Any gateway failure. The wrapped goerr carries the operation's user
	// message and the original cause.
	ErrTransport = errors.New("transport failure")

	// State errors
	ErrBusy         = errors.New("another change is in flight")
	ErrNotEditing   = errors.New("no item is being edited")
	ErrItemNotFound = errors.New("item not found")
)

// Messages shown to the user for failed gateway calls
const (
	MsgLoadFailed   = "Failed to load items. Please try again later."
	MsgAddFailed    = "Failed to add item. Please try again."
	MsgUpdateFailed = "Failed to update item. Please try again."
	MsgDeleteFailed = "Failed to delete item. Please try again."
)

// Context keys for error values
const (
	MessageKey = "user_message"
	CauseKey   = "cause"
)

// UserMessage converts an error returned by ItemStore into the text the UI
// displays. Unknown errors fall back to a generic message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrEmptyField):
		return "Title and description are required"
	case errors.Is(err, model.ErrDuplicateTitle):
		return "An item with this title already exists"
	case errors.Is(err, ErrBusy):
		return "Another change is still in progress"
	case errors.Is(err, ErrNotEditing):
		return "No item is being edited"
	case errors.Is(err, ErrItemNotFound):
		return "Item not found"
	case errors.Is(err, ErrTransport):
		if msg := transportMessage(err); msg != "" {
			return msg
		}
	}
	return "Something went wrong. Please try again."
}

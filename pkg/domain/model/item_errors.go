package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors. Every specific error wraps ErrValidation so callers can
// test for the whole class with errors.Is.
var (
	ErrValidation     = goerr.New("validation failed")
	ErrEmptyField     = goerr.Wrap(ErrValidation, "title and description are required")
	ErrDuplicateTitle = goerr.Wrap(ErrValidation, "an item with this title already exists")
)

// Context keys for error values
const (
	ItemIDKey    = "item_id"
	TitleKey     = "title"
	ConflictKey  = "conflict_id"
	OperationKey = "operation"
)

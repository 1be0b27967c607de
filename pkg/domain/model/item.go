package model

import "strings"

// LocalIDThreshold separates the two id spaces. Ids below it were assigned by
// the remote resource; ids at or above it were generated in-process for items
// the remote resource does not keep.
const LocalIDThreshold ItemID = 1_000_000_000

type ItemID int64

// Origin tells where an id was assigned.
type Origin int

const (
	OriginRemote Origin = iota
	OriginLocal
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	default:
		return "remote"
	}
}

func (id ItemID) Origin() Origin {
	if id >= LocalIDThreshold {
		return OriginLocal
	}
	return OriginRemote
}

func (id ItemID) IsLocal() bool {
	return id.Origin() == OriginLocal
}

type Item struct {
	ID          ItemID `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Clone returns a copy so callers never share the Store's records.
func (x *Item) Clone() *Item {
	if x == nil {
		return nil
	}
	c := *x
	return &c
}

// Validate checks that title and description are non-empty after trimming.
func (x *Item) Validate() error {
	if strings.TrimSpace(x.Title) == "" || strings.TrimSpace(x.Description) == "" {
		return ErrEmptyField
	}
	return nil
}

// SameTitle reports whether two titles collide: trimmed and compared with
// Unicode case folding.
func SameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Matches reports whether term is contained in the title or description,
// ignoring case. A blank term matches everything.
func (x *Item) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(x.Title), term) ||
		strings.Contains(strings.ToLower(x.Description), term)
}

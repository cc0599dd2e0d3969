package upstream

import (
	"errors"
	"fmt"
)

// Category buckets terminal session failures for retry policy. Offline,
// AlreadyConnected, and Generic retry after a flat delay; RateLimited grows an
// exponential backoff.
type Category int

const (
	// CategoryGeneric covers unclassified failures.
	CategoryGeneric Category = iota
	// CategoryOffline means the target is not live or the room is closed.
	CategoryOffline
	// CategoryAlreadyConnected means the platform rejected a duplicate session.
	CategoryAlreadyConnected
	// CategoryRateLimited covers throttling and signing/auth-gateway errors.
	CategoryRateLimited
)

func (c Category) String() string {
	switch c {
	case CategoryOffline:
		return "offline"
	case CategoryAlreadyConnected:
		return "already_connected"
	case CategoryRateLimited:
		return "rate_limited"
	default:
		return "generic"
	}
}

// Error is a terminal session failure tagged with its category.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Category.String()
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a categorized error.
func Errorf(cat Category, format string, args ...any) *Error {
	return &Error{Category: cat, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with cat, preserving the chain. Returns nil for a nil err.
func Wrap(cat Category, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: cat, Err: err}
}

// Classify extracts the category from err, defaulting to CategoryGeneric for
// anything untagged.
func Classify(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return CategoryGeneric
}

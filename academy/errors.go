package academy

import (
	"errors"
	"fmt"
)

// Category classifies a domain failure so callers can map it to a transport
// code without inspecting message text.
type Category int

const (
	// CategoryBadRequest marks malformed input: invalid UUIDs, malformed
	// test codes, unparseable identifiers.
	CategoryBadRequest Category = iota
	// CategoryNotFound marks a referenced entity or code that did not resolve.
	CategoryNotFound
	// CategoryForbidden marks scope violations: wrong tenant, wrong academic
	// year, missing enrollment, out-of-policy scores.
	CategoryForbidden
	// CategoryConflict marks uniqueness violations not absorbed by an upsert,
	// e.g. overlapping academic years.
	CategoryConflict
	// CategoryUnavailable marks a collaborator timeout or outage. Only the
	// cache backend produces it, and only non-fatally.
	CategoryUnavailable
)

func (c Category) String() string {
	switch c {
	case CategoryBadRequest:
		return "bad_request"
	case CategoryNotFound:
		return "not_found"
	case CategoryForbidden:
		return "forbidden"
	case CategoryConflict:
		return "conflict"
	case CategoryUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a categorized domain error. It wraps an optional cause.
type Error struct {
	Cat     Category
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Cat.String() + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Cat.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a categorized error with a formatted message.
func NewError(cat Category, format string, args ...any) *Error {
	return &Error{Cat: cat, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a categorized error around a cause.
func WrapError(cat Category, cause error, format string, args ...any) *Error {
	return &Error{Cat: cat, Message: fmt.Sprintf(format, args...), cause: cause}
}

// CategoryOf extracts the category from err, walking the wrap chain.
// Uncategorized errors report ok=false.
func CategoryOf(err error) (Category, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Cat, true
	}
	return 0, false
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, cat Category) bool {
	got, ok := CategoryOf(err)
	return ok && got == cat
}

// ErrNotFound is the sentinel durable-store adapters return (wrapped) when a
// lookup matches no row. Coordinators convert it into a categorized NotFound
// naming the offending identifier.
var ErrNotFound = errors.New("record not found")

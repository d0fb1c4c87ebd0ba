package browse

import "errors"

// Compilation errors. All of them describe a client mistake and are
// detected before any SQL reaches the database.
var (
	ErrUnknownColumn        = errors.New("unknown column")
	ErrSortingDisabled      = errors.New("sorting disabled")
	ErrInvalidSortDirection = errors.New("invalid sort direction")
	ErrInvalidOperator      = errors.New("invalid operator")
	ErrInvalidFilterValue   = errors.New("invalid filter value")
	ErrMalformedFilter      = errors.New("malformed filter")
)

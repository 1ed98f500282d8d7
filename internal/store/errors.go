package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidSortField is returned when a list request names a column that
// users cannot be sorted by.
var ErrInvalidSortField = errors.New("invalid sort field")

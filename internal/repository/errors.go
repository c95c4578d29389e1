package repository

import "errors"

// ErrNotFound is returned when a requested slot has no stored row.
var ErrNotFound = errors.New("not found")

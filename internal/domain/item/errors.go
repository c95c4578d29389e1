package item

import "errors"

var (
	// ErrEmptyTitle indicates a title that is empty after trimming.
	ErrEmptyTitle = errors.New("item title is empty")
	// ErrMissingPartition indicates a workspace target without a partition key.
	ErrMissingPartition = errors.New("workspace target requires a partition key")
	// ErrInvalidScope indicates an unknown scope value.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrItemNotFound indicates the item doesn't exist in the bucket.
	ErrItemNotFound = errors.New("item not found")
)

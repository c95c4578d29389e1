package surface

import "errors"

var (
	// ErrUnknownChannel means the channel name is not part of the host's fixed set.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrClosed means the host has shut down and no longer accepts messages.
	ErrClosed = errors.New("surface host closed")
)

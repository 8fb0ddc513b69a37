package broadcast

import "errors"

// Common errors
var (
	ErrBroadcasterClosed  = errors.New("broadcaster is closed")
	ErrSubscriberClosed   = errors.New("subscriber is closed")
	ErrSubscriberNotFound = errors.New("subscriber not found")
)

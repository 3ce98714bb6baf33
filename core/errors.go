package core

import "errors"

// Precondition violations. The helper panics with an error wrapping one of
// these; they indicate a caller broke the receive protocol and are not
// recoverable conditions.
var (
	ErrNotReceiving  = errors.New("interference: evaluation requested while idle")
	ErrEmptyTimeline = errors.New("interference: no power changes recorded")
)

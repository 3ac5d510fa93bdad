package stream

import "errors"

// Sentinel kinds for hub errors.
var ErrClosed = errors.New("stream hub closed")

package probe

import "errors"

// Sentinel errors returned by Run.
var (
	ErrUnhealthy        = errors.New("service unhealthy")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrRunTimeout       = errors.New("simulation did not finish in time")
	ErrChecksFailed     = errors.New("probe checks failed")
)

package core

import "errors"

var (
	ErrNotJoined         = errors.New("connection has not joined a family")
	ErrTargetUnreachable = errors.New("signaling target is not live")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidPayload    = errors.New("invalid payload")
	ErrRateLimited       = errors.New("rate limited")
	ErrBackpressure      = errors.New("backpressure")
	ErrConnClosed        = errors.New("connection closed")
)

// Code maps an error to the wire code sent back in an error event.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotJoined):
		return "not_joined"
	case errors.Is(err, ErrTargetUnreachable):
		return "target_unreachable"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "internal"
	}
}

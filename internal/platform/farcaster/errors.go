package farcaster

import (
	"errors"
	"fmt"
)

// Verification outcomes. Callers map them with errors.Is; every error returned
// by ParseWebhookEvent wraps exactly one of the first three.
var (
	ErrInvalidData      = errors.New("invalid data")
	ErrInvalidAppKey    = errors.New("invalid app key")
	ErrVerifyAppKey     = errors.New("app key verification unavailable")
	ErrInvalidEventData = fmt.Errorf("%w: event payload", ErrInvalidData)
)

func invalidData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

func invalidEvent(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEventData, fmt.Sprintf(format, args...))
}

// Package common defines shared constants and sentinel errors used across
// client and server layers of the mailing list. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrorAlreadyExists    = errors.New("already exists")
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Notifier errors.
	ErrorNotifierNotConfigured = errors.New("notifier not configured")
	ErrorDeliveryFailed        = errors.New("delivery failed")

	// Auth errors (invalid or malformed unsubscribe token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// Package common defines shared constants and sentinel errors used across
// the repository, service and transport layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrStoreUnavailable marks a failed user lookup (connection loss,
	// timeout, bad query). It is never folded into ErrorNotFound.
	ErrStoreUnavailable = errors.New("user store unavailable")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrSigning      = errors.New("token signing failed")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Package common defines shared constants and sentinel errors used across
// the FeedLine client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Transport / API errors.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")

	// Validation / conflict responses carrying a server message.
	ErrValidation = errors.New("validation error")

	// Synchronizer errors.
	ErrFetchInProgress   = errors.New("fetch already in progress")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrItemNotFound      = errors.New("item not found")

	// Session errors.
	ErrNotAuthenticated = errors.New("not authenticated")
)

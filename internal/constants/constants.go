package constants

import "time"

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyUser   = "user"
	ContextKeyTask   = "task"
)

// Cookie names used for JWT transport
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

const (
	MinPasswordLength = 8

	// TaskCompletionPoints is credited to every assignee when a task completes through clock cycles.
	TaskCompletionPoints = 5

	DefaultMinClockCycles = 1
	DefaultBadgeIcon      = "medal"

	PasswordResetTTL = time.Hour
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Check-in errors
	ErrAlreadyCheckedInToday = errors.New("already checked in today")

	// Reminder errors
	ErrInvalidReminder  = errors.New("invalid reminder")
	ErrReminderNotFound = errors.New("reminder not found")

	// Reward errors
	ErrRewardNotFound = errors.New("reward not offered")

	// Challenge errors
	ErrChallengeNotFound     = errors.New("challenge not found")
	ErrInvalidChallengeState = errors.New("invalid challenge state")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// Storage errors
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

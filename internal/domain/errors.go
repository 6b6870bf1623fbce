package domain

import "errors"

// Input errors are rendered back to the user and never change state.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrUnknownTimezone   = errors.New("unknown timezone")
	ErrPastDueTime       = errors.New("time is in the past")
)

// Delivery and storage outcomes. None of them is fatal to the scan loop.
var (
	ErrTransientFailure = errors.New("transient delivery failure")
	ErrOrphanedReminder = errors.New("orphaned reminder")
	ErrNotFound         = errors.New("not found")
)

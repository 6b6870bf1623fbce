package domain

import "time"

// User is a chat participant and their timezone preference.
type User struct {
	ID          int64  // chat id assigned by the transport
	DisplayName string // used in notification text only
	TZ          string // IANA name, validated before it is stored
	CreatedAt   time.Time
}

// Reminder is a one-shot notification owned by a single user.
type Reminder struct {
	ID        int64
	UserID    int64
	Text      string
	DueAt     time.Time // UTC, minute precision
	CreatedAt time.Time // UTC
}

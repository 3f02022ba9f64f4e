package models

import "time"

// NotificationKind classifies a stored notification.
type NotificationKind string

const (
	NotificationAlert  NotificationKind = "alert"
	NotificationDigest NotificationKind = "digest"
)

// Notification is a message recorded for a user, independent of push delivery.
type Notification struct {
	ID        string
	UserID    string
	Kind      NotificationKind
	Title     string
	Message   string
	AlertID   string
	CreatedAt time.Time
}

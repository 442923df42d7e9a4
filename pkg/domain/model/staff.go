package model

import "time"

// Staff is a member of the consultation team. Email is the key; case
// assignment stores emails.
type Staff struct {
	Email       string
	Name        string
	SlackUserID string
	UpdatedAt   time.Time
}

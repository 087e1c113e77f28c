package domain

import "time"

// User is the domain model for registered portal accounts.
type User struct {
	ID                   string
	Email                string
	PasswordHash         string
	IsAdmin              bool
	IsVerified           bool
	NewsletterSubscribed bool
	NewsletterPopupShown bool
	IsAvailable          bool
	CreatedAt            time.Time
}

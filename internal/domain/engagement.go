package domain

import "time"

// NewsletterSubscription associates an email with the broadcast list.
type NewsletterSubscription struct {
	ID           string
	Email        string
	UserID       *string
	SubscribedAt time.Time
}

// News is an admin-authored announcement broadcast to subscribers.
type News struct {
	ID          string
	Title       string
	Content     string
	AuthorID    string
	PublishedAt time.Time
}

// PushSubscription stores a browser push endpoint and its keys.
// Delivery is out of scope; rows are recorded for a future sender.
type PushSubscription struct {
	ID           string
	UserID       *string
	Endpoint     string
	P256DHKey    string
	AuthKey      string
	SubscribedAt time.Time
}

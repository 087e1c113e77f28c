package dto

import "time"

// SubscribeNewsletterRequest records a newsletter opt-in.
type SubscribeNewsletterRequest struct {
	Email string `json:"email" form:"email"`
}

// SubscribePushRequest stores a browser push subscription.
type SubscribePushRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// BroadcastRequest publishes a news item to all subscribers.
type BroadcastRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

// NewsResponse is a published news item.
type NewsResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
}

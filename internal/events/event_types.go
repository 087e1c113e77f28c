package events

import (
	"time"

	"github.com/zetsuserv/support-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted EventType = "ticket_submitted"
	EventTicketReplied   EventType = "ticket_replied"
	EventTicketResolved  EventType = "ticket_resolved"
	EventTicketDeleted   EventType = "ticket_deleted"
	EventOTPIssued       EventType = "otp_issued"
	EventNewsPublished   EventType = "news_published"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketRepliedPayload payload.
type TicketRepliedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
	Reply  string        `json:"reply"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	TicketIDs []string `json:"ticket_ids"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketID string `json:"ticket_id"`
}

// OTPIssuedPayload payload.
type OTPIssuedPayload struct {
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewsPublishedPayload payload.
type NewsPublishedPayload struct {
	News domain.News `json:"news"`
}

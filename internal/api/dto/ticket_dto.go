package dto

import (
	"time"

	"github.com/zetsuserv/support-portal/internal/domain"
)

// SubmitTicketRequest is the support form payload.
type SubmitTicketRequest struct {
	Name      string `json:"name" form:"name"`
	Email     string `json:"email" form:"email"`
	IssueType string `json:"issue_type" form:"issue_type"`
	Priority  string `json:"priority" form:"priority"`
	Message   string `json:"message" form:"message"`
}

// SearchTicketRequest looks tickets up by ID or email.
type SearchTicketRequest struct {
	Query string `json:"query" form:"query"`
}

// ReplyTicketRequest carries the admin answer.
type ReplyTicketRequest struct {
	Reply string `json:"reply" form:"reply"`
}

// BulkResolveRequest lists tickets to resolve.
type BulkResolveRequest struct {
	TicketIDs []string `json:"ticket_ids" form:"ticket_ids"`
}

// TicketPublicView is what requesters see when tracking a ticket. The
// message and admin reply are included, internal fields are not.
type TicketPublicView struct {
	TicketID   string                `json:"ticket_id"`
	Name       string                `json:"name"`
	IssueType  domain.IssueType      `json:"issue_type"`
	Priority   domain.TicketPriority `json:"priority"`
	Status     domain.TicketStatus   `json:"status"`
	Message    string                `json:"message"`
	AdminReply *string               `json:"admin_reply,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TicketDetail is the admin view including message, reply and draft.
type TicketDetail struct {
	TicketID           string                `json:"ticket_id"`
	Name               string                `json:"name"`
	Email              string                `json:"email"`
	IssueType          domain.IssueType      `json:"issue_type"`
	Priority           domain.TicketPriority `json:"priority"`
	Status             domain.TicketStatus   `json:"status"`
	Message            string                `json:"message"`
	AttachmentFilename *string               `json:"attachment_filename,omitempty"`
	AdminReply         *string               `json:"admin_reply,omitempty"`
	AIDraft            *string               `json:"ai_draft,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// FAQResponse is a single FAQ entry.
type FAQResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Order    int    `json:"order"`
}

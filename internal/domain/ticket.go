package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPendingReview TicketStatus = "pending_review"
	TicketStatusOpen          TicketStatus = "open"
	TicketStatusResolved      TicketStatus = "resolved"
	// TicketStatusSent marks tickets whose admin reply has been dispatched.
	TicketStatusSent TicketStatus = "sent"
)

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// IssueType is the submission category picked on the support form.
type IssueType string

const (
	IssueTechnicalSupport IssueType = "Technical Support"
	IssueBillingInquiry   IssueType = "Billing Inquiry"
	IssueFeatureRequest   IssueType = "Feature Request"
	IssueBugReport        IssueType = "Bug Report"
	IssueGeneralQuestion  IssueType = "General Question"
)

// AllowedIssueTypes is the fixed allow-set checked before any write.
var AllowedIssueTypes = map[IssueType]struct{}{
	IssueTechnicalSupport: {},
	IssueBillingInquiry:   {},
	IssueFeatureRequest:   {},
	IssueBugReport:        {},
	IssueGeneralQuestion:  {},
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                 string
	TicketID           string
	Name               string
	Email              string
	IssueType          IssueType
	Priority           TicketPriority
	Message            string
	Status             TicketStatus
	AttachmentFilename *string
	AdminReply         *string
	AIDraft            *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/events"
	"github.com/zetsuserv/support-portal/internal/integrations"
	"github.com/zetsuserv/support-portal/internal/repository"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

const (
	maxNameLen    = 100
	maxEmailLen   = 254
	maxMessageLen = 2000
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// urgentKeywords escalate priority to High when found in the message.
var urgentKeywords = []string{"urgent", "asap", "angry", "immediately", "critical", "emergency"}

// csvHeader is the fixed export column order. Changing it breaks
// downstream consumers.
var csvHeader = []string{"Ticket ID", "Name", "Email", "Issue Type", "Priority", "Status", "Message", "Admin Reply", "Created At"}

// TicketService coordinates the submission pipeline and admin workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	faqs       repository.FAQRepository
	dispatcher events.Dispatcher
	drafts     *integrations.DraftClient
	uploadDir  string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	FAQRepo     repository.FAQRepository
	Dispatcher  events.Dispatcher
	DraftClient *integrations.DraftClient
	UploadDir   string
}

// SubmitTicketInput describes the support form payload.
type SubmitTicketInput struct {
	Name               string
	Email              string
	IssueType          string
	Priority           string
	Message            string
	AttachmentFilename *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		faqs:       deps.FAQRepo,
		dispatcher: deps.Dispatcher,
		drafts:     deps.DraftClient,
		uploadDir:  deps.UploadDir,
	}
}

// SubmitTicket validates the form, persists the ticket, then runs the
// non-fatal side effects (AI draft, notifications, webhook). Side-effect
// failures come back as warnings; only the insert itself is fatal.
func (s *TicketService) SubmitTicket(ctx context.Context, input SubmitTicketInput) (*domain.Ticket, []string, error) {
	ticket, err := buildTicket(input)
	if err != nil {
		return nil, nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	var warnings []string
	if draft := s.generateDraft(ctx, ticket); draft != "" {
		ticket.AIDraft = &draft
		if err := s.tickets.Update(ctx, ticket); err != nil {
			warnings = append(warnings, "suggested reply could not be saved")
		}
	}

	if err := s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketSubmitted,
		Payload: events.TicketSubmittedPayload{Ticket: *ticket},
	}); err != nil {
		warnings = append(warnings, splitWarnings(err)...)
	}
	return ticket, warnings, nil
}

func buildTicket(input SubmitTicketInput) (*domain.Ticket, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	issueType := strings.TrimSpace(input.IssueType)
	message := strings.TrimSpace(input.Message)

	if name == "" || email == "" || issueType == "" || message == "" {
		return nil, apperrors.NewValidationError("all fields are required", nil)
	}
	// Caps count characters, not bytes, so non-ASCII names are not
	// penalized for their encoding.
	if utf8.RuneCountInString(name) > maxNameLen {
		return nil, apperrors.NewValidationError(fmt.Sprintf("name must be less than %d characters", maxNameLen), nil)
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return nil, apperrors.NewValidationError(fmt.Sprintf("email must be less than %d characters", maxEmailLen), nil)
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return nil, apperrors.NewValidationError(fmt.Sprintf("message must be less than %d characters", maxMessageLen), nil)
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.NewValidationError("invalid email address", nil)
	}
	if _, ok := domain.AllowedIssueTypes[domain.IssueType(issueType)]; !ok {
		return nil, apperrors.NewValidationError("invalid issue type", map[string]any{"issue_type": issueType})
	}

	return &domain.Ticket{
		TicketID:           GenerateTicketID(),
		Name:               name,
		Email:              email,
		IssueType:          domain.IssueType(issueType),
		Priority:           resolvePriority(input.Priority, message),
		Message:            message,
		Status:             domain.TicketStatusPendingReview,
		AttachmentFilename: input.AttachmentFilename,
	}, nil
}

// resolvePriority downgrades unknown values to Medium, then lets the
// urgent-keyword scan override everything to High.
func resolvePriority(submitted, message string) domain.TicketPriority {
	priority := domain.TicketPriorityMedium
	switch domain.TicketPriority(strings.TrimSpace(submitted)) {
	case domain.TicketPriorityLow:
		priority = domain.TicketPriorityLow
	case domain.TicketPriorityMedium:
		priority = domain.TicketPriorityMedium
	case domain.TicketPriorityHigh:
		priority = domain.TicketPriorityHigh
	}
	if ContainsUrgentKeyword(message) {
		priority = domain.TicketPriorityHigh
	}
	return priority
}

// ContainsUrgentKeyword scans the message case-insensitively against the
// fixed keyword list.
func ContainsUrgentKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range urgentKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// GenerateTicketID returns an identifier like ZS-20260829-A1B2C3.
func GenerateTicketID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ZS-%s-%s", time.Now().Format("20060102"), suffix)
}

func (s *TicketService) generateDraft(ctx context.Context, ticket *domain.Ticket) string {
	if s.drafts == nil {
		return ""
	}
	faqs, err := s.faqs.ListOrdered(ctx)
	if err != nil {
		faqs = nil
	}
	draft, err := s.drafts.SuggestReply(ctx, ticket, faqs)
	if err != nil {
		return ""
	}
	return draft
}

// TrackTicket returns a ticket by its public identifier.
func (s *TicketService) TrackTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, apperrors.NewValidationError("ticket_id required", nil)
	}
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// SearchTickets looks tickets up by exact ticket ID or requester email.
func (s *TicketService) SearchTickets(ctx context.Context, query string) ([]domain.Ticket, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("search query required", nil)
	}
	if emailPattern.MatchString(query) {
		return s.tickets.ListByEmail(ctx, query)
	}
	ticket, err := s.tickets.GetByTicketID(ctx, query)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.Ticket{}, nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return []domain.Ticket{*ticket}, nil
}

// ListFAQs returns the ordered FAQ entries.
func (s *TicketService) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	return s.faqs.ListOrdered(ctx)
}

// ListTickets powers the dashboard with filters and search.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// Reply stores the admin answer, marks the ticket sent and dispatches the
// reply email. Email failure is a warning, not a rollback.
func (s *TicketService) Reply(ctx context.Context, ticketID, reply string) (*domain.Ticket, []string, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, nil, apperrors.NewValidationError("reply required", nil)
	}
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	ticket.AdminReply = &reply
	ticket.Status = domain.TicketStatusSent
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	var warnings []string
	if err := s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketReplied,
		Payload: events.TicketRepliedPayload{Ticket: *ticket, Reply: reply},
	}); err != nil {
		warnings = append(warnings, splitWarnings(err)...)
	}
	return ticket, warnings, nil
}

// BulkResolve marks the given tickets resolved and reports how many
// rows changed.
func (s *TicketService) BulkResolve(ctx context.Context, ticketIDs []string) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, apperrors.NewValidationError("ticket_ids required", nil)
	}
	count, err := s.tickets.BulkUpdateStatus(ctx, ticketIDs, domain.TicketStatusResolved)
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	_ = s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketResolved,
		Payload: events.TicketResolvedPayload{TicketIDs: ticketIDs},
	})
	return count, nil
}

// DeleteTicket removes the row and its attachment file.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID string) error {
	ticket, err := s.tickets.GetByTicketID(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	if ticket.AttachmentFilename != nil && *ticket.AttachmentFilename != "" {
		name := filepath.Base(*ticket.AttachmentFilename)
		_ = os.Remove(filepath.Join(s.uploadDir, name))
	}
	_ = s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketDeleted,
		Payload: events.TicketDeletedPayload{TicketID: ticketID},
	})
	return nil
}

// ExportCSV streams every ticket newest-first with the fixed column set.
func (s *TicketService) ExportCSV(ctx context.Context, w io.Writer) error {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for i := range tickets {
		ticket := &tickets[i]
		reply := ""
		if ticket.AdminReply != nil {
			reply = *ticket.AdminReply
		}
		record := []string{
			ticket.TicketID,
			ticket.Name,
			ticket.Email,
			string(ticket.IssueType),
			string(ticket.Priority),
			string(ticket.Status),
			ticket.Message,
			reply,
			ticket.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) error {
	if s.dispatcher == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return s.dispatcher.Publish(ctx, event)
}

func splitWarnings(err error) []string {
	if err == nil {
		return nil
	}
	return strings.Split(err.Error(), "\n")
}

package handlers

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zetsuserv/support-portal/internal/api/dto"
	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/service"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

// allowedAttachmentExts limits what the support form accepts.
var allowedAttachmentExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".pdf":  true,
	".txt":  true,
}

// TicketsHandler manages public ticket endpoints.
type TicketsHandler struct {
	service       *service.TicketService
	uploadDir     string
	maxAttachment int64
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, uploadDir string, maxAttachment int64) *TicketsHandler {
	return &TicketsHandler{service: ticketService, uploadDir: uploadDir, maxAttachment: maxAttachment}
}

// SubmitTicket POST /submit.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.SubmitTicketInput{
		Name:      req.Name,
		Email:     req.Email,
		IssueType: req.IssueType,
		Priority:  req.Priority,
		Message:   req.Message,
	}

	stored, err := h.saveAttachment(c)
	if err != nil {
		return err
	}
	if stored != "" {
		input.AttachmentFilename = &stored
	}

	ticket, warnings, err := h.service.SubmitTicket(c.Context(), input)
	if err != nil {
		if stored != "" {
			_ = os.Remove(filepath.Join(h.uploadDir, stored))
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":     ticketPublicView(ticket),
		"warnings": warnings,
	})
}

// TrackTicket GET /track.
func (h *TicketsHandler) TrackTicket(c *fiber.Ctx) error {
	ticketID := strings.TrimSpace(c.Query("ticket_id"))
	if ticketID == "" {
		return apperrors.NewValidationError("ticket_id required", nil)
	}
	ticket, err := h.service.TrackTicket(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketPublicView(ticket)})
}

// SearchTickets POST /search_ticket.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	var req dto.SearchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tickets, err := h.service.SearchTickets(c.Context(), req.Query)
	if err != nil {
		return err
	}
	items := make([]dto.TicketPublicView, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketPublicView(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListFAQs GET /faq.
func (h *TicketsHandler) ListFAQs(c *fiber.Ctx) error {
	faqs, err := h.service.ListFAQs(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.FAQResponse, 0, len(faqs))
	for _, faq := range faqs {
		items = append(items, dto.FAQResponse{
			Question: faq.Question,
			Answer:   faq.Answer,
			Category: faq.Category,
			Order:    faq.Order,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// saveAttachment stores the optional upload under a generated name and
// returns the stored filename, or "" when no file was attached.
func (h *TicketsHandler) saveAttachment(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("attachment")
	if err != nil {
		// Missing file is fine; the field is optional.
		return "", nil
	}
	if err := h.validateAttachment(file); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	stored := uuid.NewString() + ext
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	if err := c.SaveFile(file, filepath.Join(h.uploadDir, stored)); err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return stored, nil
}

func (h *TicketsHandler) validateAttachment(file *multipart.FileHeader) error {
	if h.maxAttachment > 0 && file.Size > h.maxAttachment {
		return apperrors.NewValidationError("attachment too large", map[string]any{"max_bytes": h.maxAttachment})
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAttachmentExts[ext] {
		return apperrors.NewValidationError("attachment type not allowed", nil)
	}
	return nil
}

func ticketPublicView(ticket *domain.Ticket) dto.TicketPublicView {
	return dto.TicketPublicView{
		TicketID:   ticket.TicketID,
		Name:       ticket.Name,
		IssueType:  ticket.IssueType,
		Priority:   ticket.Priority,
		Status:     ticket.Status,
		Message:    ticket.Message,
		AdminReply: ticket.AdminReply,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetail {
	return dto.TicketDetail{
		TicketID:           ticket.TicketID,
		Name:               ticket.Name,
		Email:              ticket.Email,
		IssueType:          ticket.IssueType,
		Priority:           ticket.Priority,
		Status:             ticket.Status,
		Message:            ticket.Message,
		AttachmentFilename: ticket.AttachmentFilename,
		AdminReply:         ticket.AdminReply,
		AIDraft:            ticket.AIDraft,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
	}
}

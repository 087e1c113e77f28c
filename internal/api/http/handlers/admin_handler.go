package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zetsuserv/support-portal/internal/api/dto"
	"github.com/zetsuserv/support-portal/internal/auth"
	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/repository"
	"github.com/zetsuserv/support-portal/internal/service"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

// AdminHandler manages the dashboard workflows.
type AdminHandler struct {
	tickets    *service.TicketService
	newsletter *service.NewsletterService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tickets *service.TicketService, newsletter *service.NewsletterService) *AdminHandler {
	return &AdminHandler{tickets: tickets, newsletter: newsletter}
}

// Dashboard GET /dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	filter := parseDashboardQuery(c)
	tickets, err := h.tickets.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketDetail, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketDetail(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ReplyTicket POST /reply_ticket/:ticket_id.
func (h *AdminHandler) ReplyTicket(c *fiber.Ctx) error {
	var req dto.ReplyTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reply) == "" {
		return apperrors.NewValidationError("reply required", nil)
	}
	ticket, warnings, err := h.tickets.Reply(c.Context(), c.Params("ticket_id"), req.Reply)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":     ticketDetail(ticket),
		"warnings": warnings,
	})
}

// BulkResolve POST /bulk_resolve.
func (h *AdminHandler) BulkResolve(c *fiber.Ctx) error {
	var req dto.BulkResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.TicketIDs) == 0 {
		return apperrors.NewValidationError("ticket_ids required", nil)
	}
	resolved, err := h.tickets.BulkResolve(c.Context(), req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"resolved": resolved}})
}

// DeleteTicket POST /delete_ticket/:ticket_id.
func (h *AdminHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.tickets.DeleteTicket(c.Context(), c.Params("ticket_id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ExportTickets GET /export_tickets.
func (h *AdminHandler) ExportTickets(c *fiber.Ctx) error {
	filename := fmt.Sprintf("tickets_%s.csv", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return h.tickets.ExportCSV(c.Context(), c.Response().BodyWriter())
}

// Broadcast POST /admin/broadcast.
func (h *AdminHandler) Broadcast(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("title and content required", nil)
	}
	news, warnings, err := h.newsletter.PublishNews(c.Context(), principal.User.ID, req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":     newsResponse(news),
		"warnings": warnings,
	})
}

func parseDashboardQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if issueStr := c.Query("issue_type"); issueStr != "" {
		for _, part := range strings.Split(issueStr, ",") {
			filter.IssueTypes = append(filter.IssueTypes, domain.IssueType(strings.TrimSpace(part)))
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func newsResponse(news *domain.News) dto.NewsResponse {
	return dto.NewsResponse{
		ID:          news.ID,
		Title:       news.Title,
		Content:     news.Content,
		PublishedAt: news.PublishedAt,
	}
}

package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/zetsuserv/support-portal/internal/api/dto"
	"github.com/zetsuserv/support-portal/internal/auth"
	"github.com/zetsuserv/support-portal/internal/service"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

// EngagementHandler manages newsletter, push and news endpoints.
type EngagementHandler struct {
	service *service.NewsletterService
}

// NewEngagementHandler constructs handler.
func NewEngagementHandler(newsletterService *service.NewsletterService) *EngagementHandler {
	return &EngagementHandler{service: newsletterService}
}

// SubscribeNewsletter POST /subscribe_newsletter.
func (h *EngagementHandler) SubscribeNewsletter(c *fiber.Ctx) error {
	var req dto.SubscribeNewsletterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	var userID *string
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		userID = &principal.User.ID
	}
	if err := h.service.Subscribe(c.Context(), req.Email, userID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"subscribed": true}})
}

// SubscribePush POST /subscribe_push.
func (h *EngagementHandler) SubscribePush(c *fiber.Ctx) error {
	var req dto.SubscribePushRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		return apperrors.NewValidationError("endpoint, p256dh, auth required", nil)
	}
	var userID *string
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		userID = &principal.User.ID
	}
	if err := h.service.SubscribePush(c.Context(), service.PushSubscriptionInput{
		Endpoint:  req.Endpoint,
		P256DHKey: req.P256dh,
		AuthKey:   req.Auth,
		UserID:    userID,
	}); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"subscribed": true}})
}

// ListNews GET /news.
func (h *EngagementHandler) ListNews(c *fiber.Ctx) error {
	items, err := h.service.ListNews(c.Context(), parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	resp := make([]dto.NewsResponse, 0, len(items))
	for i := range items {
		resp = append(resp, newsResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

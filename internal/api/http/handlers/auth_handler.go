package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zetsuserv/support-portal/internal/api/dto"
	"github.com/zetsuserv/support-portal/internal/auth"
	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/service"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

// AuthHandler manages registration, OTP verification and session login.
type AuthHandler struct {
	service      *service.AuthService
	cookieName   string
	cookieSecure bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{service: authService, cookieName: cookieName, cookieSecure: cookieSecure}
}

// Register POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.ensureSession(c)
	if err != nil {
		return err
	}

	warnings, err := h.service.BeginRegistration(c.Context(), session, req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{
		"data":     fiber.Map{"message": "verification code sent", "email": req.Email},
		"warnings": warnings,
	})
}

// VerifyOTP POST /verify_otp.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Session == nil {
		return mapAuthError(service.ErrNoPendingRegistration)
	}

	user, err := h.service.VerifyOTP(c.Context(), principal.Session, req.Code)
	if err != nil {
		return mapAuthError(err)
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Login POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, session, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	// Drop any previous session before binding the new one.
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Session != nil {
		_ = h.service.Logout(c.Context(), principal.Session)
	}

	if err := h.setSessionCookie(c, session); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Logout POST /logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Session != nil {
		if err := h.service.Logout(c.Context(), principal.Session); err != nil {
			return apperrors.MapError(err)
		}
	}
	h.clearSessionCookie(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "logged out"}})
}

// SetAvailability POST /admin/availability.
func (h *AuthHandler) SetAvailability(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("login required")
	}
	var req dto.AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SetAvailability(c.Context(), principal.User, req.Available); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"available": req.Available}})
}

// ensureSession reuses the caller's session or issues a fresh one with
// its cookie so the pending registration has somewhere to live.
func (h *AuthHandler) ensureSession(c *fiber.Ctx) (*auth.Session, error) {
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.Session != nil {
		return principal.Session, nil
	}
	session := &auth.Session{}
	if err := h.setSessionCookie(c, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, session *auth.Session) error {
	value, expires, err := h.service.Sessions().Issue(c.Context(), session)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return nil
}

func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, service.ErrNoPendingRegistration),
		errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPMismatch):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(err.Error())
	case errors.Is(err, service.ErrNotVerified):
		return apperrors.NewForbidden(err.Error())
	default:
		return apperrors.MapError(err)
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                   user.ID,
		Email:                user.Email,
		IsAdmin:              user.IsAdmin,
		NewsletterSubscribed: user.NewsletterSubscribed,
	}
}

package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/zetsuserv/support-portal/internal/domain"
	"github.com/zetsuserv/support-portal/internal/repository"
	apperrors "github.com/zetsuserv/support-portal/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the resolved session caller.
type Principal struct {
	Session *Session
	User    *domain.User
}

// SessionMiddleware resolves the session cookie and loads the account when
// one is attached. Requests without a valid cookie pass through anonymous;
// route guards decide what is required.
type SessionMiddleware struct {
	sessions   *SessionManager
	users      repository.UserRepository
	cookieName string
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *SessionManager, users repository.UserRepository, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, users: users, cookieName: cookieName}
}

// Handle attaches the principal when a valid session cookie is present.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	cookie := c.Cookies(m.cookieName)
	if cookie == "" {
		return c.Next()
	}

	session, err := m.sessions.Resolve(c.Context(), cookie)
	if err != nil {
		// Stale or tampered cookie: continue anonymous.
		return c.Next()
	}

	principal := &Principal{Session: session}
	if session.UserID != "" {
		user, err := m.users.GetByID(c.Context(), session.UserID)
		if err != nil {
			if err != pgx.ErrNoRows {
				return apperrors.MapError(err)
			}
		} else {
			principal.User = user
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the resolved session principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireUser ensures a verified account is logged in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("login required")
		}
		if !principal.User.IsVerified {
			return apperrors.NewForbidden("account not verified")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the logged-in account has admin rights.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("login required")
		}
		if !principal.User.IsAdmin {
			return apperrors.NewForbidden("admin required")
		}
		return c.Next()
	}
}

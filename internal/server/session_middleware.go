package server

import (
	"context"
	"errors"
	"time"

	"kfarm/internal/middleware"
	"kfarm/internal/models"
	"kfarm/internal/observability"
	"kfarm/internal/session"

	"github.com/gofiber/fiber/v2"
)

// setSessionCookie issues the session cookie for the given id.
func (s *Server) setSessionCookie(c *fiber.Ctx, sid string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    sid,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.Env == "production" || s.config.Env == "prod",
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// clearSessionCookie expires the session cookie on the client.
func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// SessionMiddleware resolves the session cookie into a user identity.
//
// A request carrying a cookie whose server-side record has expired is
// answered with the dedicated session-expired status so clients can prompt
// a re-login; the record and cookie are destroyed in the process. Requests
// without a cookie, or with an unknown one, continue unauthenticated and
// are caught by AuthRequired where it applies. Valid sessions slide their
// expiry forward on every request.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(session.CookieName)
		if sid == "" {
			return c.Next()
		}

		rec, err := s.sessions.Refresh(c.Context(), sid)
		switch {
		case errors.Is(err, session.ErrExpired):
			observability.SessionExpiries.Inc()
			s.clearSessionCookie(c)
			return models.RespondWithError(c, models.StatusSessionExpired,
				models.NewSessionExpiredError())
		case errors.Is(err, session.ErrNotFound):
			s.clearSessionCookie(c)
			return c.Next()
		case err != nil:
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}

		s.setSessionCookie(c, sid, rec.ExpiresAt)

		c.Locals("userID", rec.UserID)
		c.Locals("sessionID", sid)
		// Sync to UserContext for logging and downstream queries
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, rec.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// AuthRequired returns middleware that rejects requests without a resolved
// session identity. Must be placed after SessionMiddleware.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("userID").(uint); !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authentication required"))
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

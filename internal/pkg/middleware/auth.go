package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Postify/internal/pkg/constants"
	"github.com/ManuelReschke/Postify/internal/pkg/flash"
	"github.com/ManuelReschke/Postify/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in web session; redirects to /login if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return flash.Error(c, "Please sign in to continue.").Redirect(constants.RouteLogin, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireSessionAuth fails closed with 401 instead of redirecting. Used for
// form posts, where a redirect would silently drop the submission.
func RequireSessionAuth(c *fiber.Ctx) error {
	if _, err := usercontext.RequireUser(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication required")
	}
	return c.Next()
}

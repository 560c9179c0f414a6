package usercontext

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Postify/app/models"
)

// ErrUnauthenticated is returned when a protected operation runs without a
// logged-in user.
var ErrUnauthenticated = errors.New("authentication required")

// UserContext represents the complete user context for a request
type UserContext struct {
	User       *models.UserSession
	IsLoggedIn bool
}

// Set stores the user context for the current request.
func Set(c *fiber.Ctx, userCtx UserContext) {
	c.Locals(KeyUserContext, userCtx)
	c.Locals(KeyFromProtected, userCtx.IsLoggedIn)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// RequireUser returns the logged-in user or ErrUnauthenticated.
func RequireUser(c *fiber.Ctx) (*models.UserSession, error) {
	userCtx := GetUserContext(c)
	if !userCtx.IsLoggedIn || userCtx.User == nil {
		return nil, ErrUnauthenticated
	}
	return userCtx.User, nil
}

// CSRFToken returns the token the csrf middleware stored for this request.
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(KeyCSRF).(string)
	return token
}

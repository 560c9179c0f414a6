package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Postify/internal/pkg/session"
	"github.com/ManuelReschke/Postify/internal/pkg/usercontext"
)

// UserContextMiddleware loads the session user into the request context so
// handlers and templates never touch the session store directly.
//
// Requests to skipPaths are passed through untouched. goth keeps its OAuth
// state in its own fiber session store and both stores share the session id
// slot in the request locals, so the app session must not be opened on the
// provider login and callback routes.
func UserContextMiddleware(sessions *session.Manager, skipPaths ...string) fiber.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[normalizePath(p)] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := skip[normalizePath(c.Path())]; ok {
			return c.Next()
		}

		user, ok := sessions.GetUser(c)
		usercontext.Set(c, usercontext.UserContext{
			User:       user,
			IsLoggedIn: ok,
		})
		return c.Next()
	}
}

// routing is case-insensitive and ignores a trailing slash
func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return strings.ToLower(p)
}

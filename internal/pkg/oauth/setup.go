package oauth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/markbates/goth/gothic"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/Postify/internal/pkg/config"
)

// Setup registers the Google and LinkedIn providers and points goth's OAuth
// state store at the given storage (nil means in memory). goth keeps its
// state under its own cookie so it never collides with the app session.
func Setup(cfg *config.Config, storage fiber.Storage) (*Registry, error) {
	base := cfg.App.BaseURL()
	secure := !cfg.App.IsDev()

	googleProvider, err := NewGoogleProvider(cfg.Google, CallbackURL(base, "google"), cfg.LinkedIn.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	linkedInProvider, err := NewLinkedInProvider(cfg.LinkedIn, CallbackURL(base, "linkedin"), secure)
	if err != nil {
		return nil, err
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage:        storage,
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookiePath:     "/",
		CookieSecure:   secure,
		Expiration:     15 * time.Minute,
	})

	return NewRegistry(googleProvider, linkedInProvider), nil
}

package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"
	"github.com/google/uuid"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/cache"
)

const CookieName = "postify_session"

// Session keys
const (
	KeyUserID         = "user_id"
	KeyUserName       = "username"
	KeyUserEmail      = "user_email"
	KeyUserPicture    = "user_picture"
	KeyUserProvider   = "user_provider"
	KeyProviderToken  = "linkedin_token"
	sessionExpiration = 24 * time.Hour
)

// NewStorage returns Redis storage on the given database of the cache
// server, or nil (fiber's in-memory storage) when no cache is configured.
func NewStorage(cc *cache.Client, database int) fiber.Storage {
	if cc == nil {
		return nil
	}
	cfg := cc.Config()

	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: database,
		Reset:    false,
	})
}

// Manager gives handlers get/set/clear access to the current user of a
// browser session.
type Manager struct {
	store *session.Store
}

func NewManager(storage fiber.Storage, secure bool) *Manager {
	return &Manager{
		store: session.New(session.Config{
			Storage:        storage,
			Expiration:     sessionExpiration,
			KeyLookup:      "cookie:" + CookieName,
			KeyGenerator:   uuid.NewString,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			CookiePath:     "/",
			CookieSecure:   secure,
		}),
	}
}

// SetUser replaces the user of the current session. The session id is
// regenerated so a pre-login cookie never becomes an authenticated one. A
// nil token removes any stored provider token.
func (m *Manager) SetUser(c *fiber.Ctx, user *models.UserSession, token *models.ProviderToken) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user session: %w", err)
	}

	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}

	sess.Set(KeyUserID, user.ID)
	sess.Set(KeyUserName, user.Name)
	sess.Set(KeyUserEmail, user.Email)
	sess.Set(KeyUserPicture, user.ProfilePicture)
	sess.Set(KeyUserProvider, user.Provider)
	if token != nil && token.AccessToken != "" {
		sess.Set(KeyProviderToken, token.AccessToken)
	} else {
		sess.Delete(KeyProviderToken)
	}

	return sess.Save()
}

// GetUser returns the user of the current session, if any.
func (m *Manager) GetUser(c *fiber.Ctx) (*models.UserSession, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, false
	}

	id := getString(sess, KeyUserID)
	if id == "" {
		return nil, false
	}

	return &models.UserSession{
		ID:             id,
		Name:           getString(sess, KeyUserName),
		Email:          getString(sess, KeyUserEmail),
		ProfilePicture: getString(sess, KeyUserPicture),
		Provider:       getString(sess, KeyUserProvider),
	}, true
}

// ProviderToken returns the access token stored by the LinkedIn login.
func (m *Manager) ProviderToken(c *fiber.Ctx) (*models.ProviderToken, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, false
	}

	token := getString(sess, KeyProviderToken)
	if token == "" {
		return nil, false
	}
	return &models.ProviderToken{AccessToken: token}, true
}

// Clear removes the user and every other value of the current session.
// Clearing an empty session is a no-op.
func (m *Manager) Clear(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	return sess.Destroy()
}

func getString(sess *session.Session, key string) string {
	if value, ok := sess.Get(key).(string); ok {
		return value
	}
	return ""
}

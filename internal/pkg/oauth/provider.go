package oauth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Postify/app/models"
)

var (
	// ErrMissingAuthorizationCode is returned when a callback carries no code.
	ErrMissingAuthorizationCode = errors.New("authorization code not found")
	// ErrStateMismatch is returned when the callback state does not match the
	// state issued with the redirect.
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrProfileFetchFailed is returned when the user-info endpoint fails.
	ErrProfileFetchFailed = errors.New("failed to fetch user profile")
)

// TokenExchangeError is returned when the token endpoint does not hand out
// an access token. Body holds the raw provider response for diagnostics.
type TokenExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

// Identity is the normalized result of a completed login.
type Identity struct {
	Provider    string
	ID          string
	Name        string
	Email       string
	Picture     string
	AccessToken string
	RawClaims   map[string]any
}

// ToUserSession converts the identity into the session record. Only
// providers that hand out a token worth keeping set AccessToken.
func (i *Identity) ToUserSession() (*models.UserSession, *models.ProviderToken) {
	user := &models.UserSession{
		ID:             i.ID,
		Name:           i.Name,
		Email:          i.Email,
		ProfilePicture: i.Picture,
		Provider:       i.Provider,
	}
	if user.ProfilePicture == "" {
		user.ProfilePicture = models.DefaultProfilePicture
	}

	var token *models.ProviderToken
	if i.AccessToken != "" {
		token = &models.ProviderToken{AccessToken: i.AccessToken}
	}
	return user, token
}

// Provider drives one identity provider through the authorization-code flow.
type Provider interface {
	// Name is the path segment used for /<name>/login and /<name>/callback.
	Name() string
	// BeginLogin returns the consent-page URL the browser is redirected to.
	BeginLogin(c *fiber.Ctx) (string, error)
	// CompleteLogin handles the provider callback and returns the identity.
	CompleteLogin(c *fiber.Ctx) (*Identity, error)
	// LandingPath is where the browser goes once the session is established.
	LandingPath(user *models.UserSession) string
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[strings.ToLower(name)]
	return p, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallbackURL is the redirect URI registered with a provider.
func CallbackURL(baseURL, provider string) string {
	return strings.TrimRight(baseURL, "/") + "/" + provider + "/callback"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

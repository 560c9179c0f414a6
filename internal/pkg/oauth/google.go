package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
	"github.com/ManuelReschke/Postify/internal/pkg/utils"
)

// GoogleProvider uses goth's Google provider; goth keeps the OAuth state in
// its own session store and exchanges the code for us.
type GoogleProvider struct {
	provider *google.Provider
}

func NewGoogleProvider(cfg config.ProviderConfig, callbackURL string, timeout time.Duration) (*GoogleProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, &config.Error{Err: errors.New("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET are not configured")}
	}

	p := google.New(cfg.ClientID, cfg.ClientSecret, callbackURL, "openid", "email", "profile")
	p.HTTPClient = &http.Client{Timeout: timeout}
	goth.UseProviders(p)

	return &GoogleProvider{provider: p}, nil
}

func (g *GoogleProvider) Name() string {
	return models.PROVIDER_GOOGLE
}

func (g *GoogleProvider) BeginLogin(c *fiber.Ctx) (string, error) {
	return gothfiber.GetAuthURL(c)
}

func (g *GoogleProvider) CompleteLogin(c *fiber.Ctx) (*Identity, error) {
	if c.Query("code") == "" {
		return nil, ErrMissingAuthorizationCode
	}

	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return nil, fmt.Errorf("google login failed: %w", err)
	}
	return identityFromGoth(u), nil
}

func (g *GoogleProvider) LandingPath(user *models.UserSession) string {
	return "/dashboard/" + url.PathEscape(user.Name)
}

func identityFromGoth(u goth.User) *Identity {
	picture := u.AvatarURL
	if picture == "" && u.Email != "" {
		picture = utils.GetGravatarURL(u.Email, 200)
	}

	return &Identity{
		Provider: models.PROVIDER_GOOGLE,
		ID:       u.UserID,
		Name: firstNonEmpty(
			u.Name,
			strings.TrimSpace(u.FirstName+" "+u.LastName),
			u.NickName,
			u.Email,
			"Unknown User",
		),
		Email:     u.Email,
		Picture:   picture,
		RawClaims: u.RawData,
	}
}

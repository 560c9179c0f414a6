package oauth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
)

const (
	linkedInStateCookie = "linkedin_oauth_state"
	linkedInStateTTL    = 10 * time.Minute

	defaultGivenName  = "Unknown"
	defaultFamilyName = "User"
)

var linkedInScopes = []string{"openid", "profile", "email", "w_member_social"}

// LinkedInProvider performs the authorization-code exchange by hand: LinkedIn
// has no discovery document the OAuth library could use.
type LinkedInProvider struct {
	oauth2Config *oauth2.Config
	userInfoURL  string
	httpClient   *http.Client
	secureCookie bool
}

func NewLinkedInProvider(cfg config.LinkedInConfig, callbackURL string, secureCookie bool) (*LinkedInProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, &config.Error{Err: errors.New("LINKEDIN_CLIENT_ID/LINKEDIN_CLIENT_SECRET are not configured")}
	}

	return &LinkedInProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  callbackURL,
			Scopes:       linkedInScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL:  cfg.UserInfoURL,
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		secureCookie: secureCookie,
	}, nil
}

func (p *LinkedInProvider) Name() string {
	return models.PROVIDER_LINKEDIN
}

// AuthURL returns the consent-page URL for the given state.
func (p *LinkedInProvider) AuthURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

func (p *LinkedInProvider) BeginLogin(c *fiber.Ctx) (string, error) {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     linkedInStateCookie,
		Value:    state,
		Path:     "/" + p.Name(),
		Expires:  time.Now().Add(linkedInStateTTL),
		HTTPOnly: true,
		Secure:   p.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return p.AuthURL(state), nil
}

func (p *LinkedInProvider) CompleteLogin(c *fiber.Ctx) (*Identity, error) {
	code := c.Query("code")
	if code == "" {
		return nil, ErrMissingAuthorizationCode
	}

	expected := c.Cookies(linkedInStateCookie)
	// single use
	c.Cookie(&fiber.Cookie{
		Name:     linkedInStateCookie,
		Path:     "/" + p.Name(),
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   p.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(c.Query("state"))) != 1 {
		return nil, ErrStateMismatch
	}

	return p.Exchange(c.UserContext(), code)
}

func (p *LinkedInProvider) LandingPath(*models.UserSession) string {
	return "/dashboard"
}

// Exchange trades the authorization code for an access token and fetches
// the member profile with it.
func (p *LinkedInProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingAuthorizationCode
	}

	accessToken, err := p.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	claims, err := p.fetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	sub := claimString(claims, "sub")
	if sub == "" {
		return nil, fmt.Errorf("%w: profile has no subject", ErrProfileFetchFailed)
	}

	return &Identity{
		Provider: models.PROVIDER_LINKEDIN,
		ID:       sub,
		Name: firstNonEmpty(claimString(claims, "given_name"), defaultGivenName) + " " +
			firstNonEmpty(claimString(claims, "family_name"), defaultFamilyName),
		Email:       claimString(claims, "email"),
		Picture:     firstNonEmpty(claimString(claims, "picture"), models.DefaultProfilePicture),
		AccessToken: accessToken,
		RawClaims:   claims,
	}, nil
}

func (p *LinkedInProvider) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	// must match the redirect_uri of the consent request byte for byte
	form.Set("redirect_uri", p.oauth2Config.RedirectURL)
	form.Set("client_id", p.oauth2Config.ClientID)
	form.Set("client_secret", p.oauth2Config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.oauth2Config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &TokenExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", &TokenExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TokenExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	token := claimString(out, "access_token")
	if token == "" {
		return "", &TokenExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return token, nil
}

func (p *LinkedInProvider) fetchProfile(ctx context.Context, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrProfileFetchFailed, resp.StatusCode, string(body))
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	return claims, nil
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

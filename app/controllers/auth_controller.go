package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/internal/pkg/constants"
	"github.com/ManuelReschke/Postify/internal/pkg/flash"
	"github.com/ManuelReschke/Postify/internal/pkg/oauth"
	"github.com/ManuelReschke/Postify/internal/pkg/viewmodel"
)

var providerLabels = map[string]string{
	"google":   "Google",
	"linkedin": "LinkedIn",
}

func (ctrl *Controller) HandleLogin(c *fiber.Ctx) error {
	vm := viewmodel.Login{Layout: ctrl.layout(c, " | Login")}
	for _, name := range ctrl.providers.Names() {
		label, ok := providerLabels[name]
		if !ok {
			label = strings.ToUpper(name[:1]) + name[1:]
		}
		vm.Providers = append(vm.Providers, viewmodel.ProviderLink{
			Name:  name,
			Label: label,
			URL:   "/" + name + "/login",
		})
	}
	return c.Render("login", vm, layoutMain)
}

// HandleProviderLogin redirects the browser to the provider's consent page.
func (ctrl *Controller) HandleProviderLogin(c *fiber.Ctx) error {
	provider, ok := ctrl.providers.Get(c.Params("provider"))
	if !ok {
		return fiber.ErrNotFound
	}

	authURL, err := provider.BeginLogin(c)
	if err != nil {
		ctrl.log.Error("oauth: could not build consent url", zap.String("provider", provider.Name()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	ctrl.log.Debug("oauth: redirect issued", zap.String("provider", provider.Name()))
	return c.Redirect(authURL, fiber.StatusSeeOther)
}

// HandleProviderCallback completes the provider flow and logs the user in
func (ctrl *Controller) HandleProviderCallback(c *fiber.Ctx) error {
	provider, ok := ctrl.providers.Get(c.Params("provider"))
	if !ok {
		return fiber.ErrNotFound
	}
	log := ctrl.log.With(zap.String("provider", provider.Name()))
	log.Debug("oauth: code received")

	identity, err := provider.CompleteLogin(c)
	if err != nil {
		log.Warn("oauth: login failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).SendString(loginFailureMessage(err))
	}
	log.Debug("oauth: profile fetched", zap.String("user_id", identity.ID))

	user, token := identity.ToUserSession()
	if err := ctrl.sessions.SetUser(c, user, token); err != nil {
		log.Error("oauth: could not establish session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}
	log.Info("oauth: session established", zap.String("user_id", user.ID))
	if err := ctrl.counter.AddLogin(c.UserContext(), provider.Name()); err != nil {
		log.Warn("could not count login", zap.Error(err))
	}

	return c.Redirect(provider.LandingPath(user), fiber.StatusSeeOther)
}

func loginFailureMessage(err error) string {
	var tokenErr *oauth.TokenExchangeError
	switch {
	case errors.Is(err, oauth.ErrMissingAuthorizationCode):
		return "Authorization code not found!"
	case errors.As(err, &tokenErr):
		if tokenErr.Body != "" {
			return "Failed to get access token: " + tokenErr.Body
		}
		return "Failed to get access token: " + tokenErr.Error()
	case errors.Is(err, oauth.ErrStateMismatch):
		return "Invalid OAuth state"
	case errors.Is(err, oauth.ErrProfileFetchFailed):
		return "Failed to fetch user profile"
	default:
		return fmt.Sprintf("OAuth failed: %v", err)
	}
}

// HandleLogout always ends on the home page, logged in or not.
func (ctrl *Controller) HandleLogout(c *fiber.Ctx) error {
	if err := ctrl.sessions.Clear(c); err != nil {
		ctrl.log.Warn("logout: could not clear session", zap.Error(err))
	}

	return flash.Success(c, "You are now logged out.").Redirect(constants.RouteHome, fiber.StatusSeeOther)
}

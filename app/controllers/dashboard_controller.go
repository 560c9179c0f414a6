package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/postgen"
	"github.com/ManuelReschke/Postify/internal/pkg/usercontext"
	"github.com/ManuelReschke/Postify/internal/pkg/viewmodel"
)

// WritingStyles are offered in the dashboard form. Any other value posted is
// passed to the model unchanged.
var WritingStyles = []string{"professional", "casual", "inspirational", "humorous", "storytelling"}

func (ctrl *Controller) dashboard(c *fiber.Ctx) viewmodel.Dashboard {
	vm := viewmodel.Dashboard{
		Layout:       ctrl.layout(c, " | Dashboard"),
		WritingStyle: WritingStyles[0],
		Styles:       WritingStyles,
	}
	if user, err := usercontext.RequireUser(c); err == nil {
		n, err := ctrl.counter.GeneratedPosts(c.UserContext(), user)
		if err != nil {
			ctrl.log.Warn("could not read post counter", zap.Error(err))
		}
		vm.GeneratedPosts = n
	}
	return vm
}

// HandleDashboard serves /dashboard and /dashboard/:username. The path
// segment is cosmetic; the page always shows the session user.
func (ctrl *Controller) HandleDashboard(c *fiber.Ctx) error {
	return c.Render("dashboard", ctrl.dashboard(c), layoutMain)
}

func (ctrl *Controller) HandleGeneratePost(c *fiber.Ctx) error {
	user, err := usercontext.RequireUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication required")
	}

	var req models.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("No input provided")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("No input provided")
	}

	vm := ctrl.dashboard(c)
	vm.UserInput = req.UserInput
	if strings.TrimSpace(req.WritingStyle) != "" {
		vm.WritingStyle = req.WritingStyle
	}

	result, err := ctrl.generator.Generate(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, postgen.ErrMissingInput) {
			return c.Status(fiber.StatusBadRequest).SendString("No input provided")
		}
		ctrl.log.Error("post generation failed", zap.String("user_id", user.ID), zap.Error(err))
		vm.Error = "We could not generate your post right now. Please try again."
		return c.Status(fiber.StatusBadGateway).Render("dashboard", vm, layoutMain)
	}

	ctrl.log.Info("post generated", zap.String("user_id", user.ID), zap.Int("length", len(result.Content)))
	if n, err := ctrl.counter.AddGeneratedPost(c.UserContext(), user); err != nil {
		ctrl.log.Warn("could not count generated post", zap.Error(err))
	} else if n > 0 {
		vm.GeneratedPosts = n
	}
	vm.Post = result.Content
	return c.Render("dashboard", vm, layoutMain)
}

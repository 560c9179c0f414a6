package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (ctrl *Controller) HandleHome(c *fiber.Ctx) error {
	return c.Render("index", ctrl.layout(c, ""), layoutMain)
}

// HandleHealth reports 200 while the app and, if configured, the cache are
// reachable.
func (ctrl *Controller) HandleHealth(c *fiber.Ctx) error {
	if ctrl.cache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := ctrl.cache.Ping(ctx); err != nil {
			ctrl.log.Warn("health check: cache unreachable", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).SendString("cache unavailable")
		}
	}
	return c.SendString("ok")
}

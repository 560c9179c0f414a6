package flash

import (
	"github.com/gofiber/fiber/v2"
	sflash "github.com/sujit-baniya/flash"
)

// Message types understood by layouts/main.html
const (
	TypeSuccess = "success"
	TypeError   = "error"
)

// Success queues a success message for the next page the browser loads.
func Success(c *fiber.Ctx, message string) *fiber.Ctx {
	return sflash.WithSuccess(c, fiber.Map{"type": TypeSuccess, "message": message})
}

// Error queues an error message for the next page the browser loads.
func Error(c *fiber.Ctx, message string) *fiber.Ctx {
	return sflash.WithError(c, fiber.Map{"type": TypeError, "message": message})
}

// Get returns the pending message and consumes it. An empty map means no
// message is pending.
func Get(c *fiber.Ctx) fiber.Map {
	return sflash.Get(c)
}

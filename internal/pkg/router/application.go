package router

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/ManuelReschke/Postify/app/controllers"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
	"github.com/ManuelReschke/Postify/internal/pkg/constants"
	"github.com/ManuelReschke/Postify/internal/pkg/session"
	"github.com/ManuelReschke/Postify/public"
	"github.com/ManuelReschke/Postify/views"
)

// NewApplication builds the fiber app with views, static assets, cookie
// encryption and all routes installed.
func NewApplication(cfg *config.Config, ctrl *controllers.Controller, sessions *session.Manager) *fiber.App {
	engine := html.NewFileSystem(http.FS(views.FS), ".html")
	app := fiber.New(fiber.Config{
		Views:        engine,
		AppName:      "Postify",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Generation.Timeout + 10*time.Second,
	})
	app.Use(recover.New(), logger.New())
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: CookieKey(cfg.App.SecretKey),
	}))
	app.Use(constants.RouteAssets, filesystem.New(filesystem.Config{
		Root:       http.FS(public.FS),
		PathPrefix: "assets",
		MaxAge:     3600,
	}))

	InstallRouter(app, NewHttpRouter(cfg, ctrl, sessions))

	return app
}

// CookieKey derives the AES-256 key for cookie encryption from the secret.
func CookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

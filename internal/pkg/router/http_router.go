package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/Postify/app/controllers"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
	"github.com/ManuelReschke/Postify/internal/pkg/constants"
	"github.com/ManuelReschke/Postify/internal/pkg/middleware"
	"github.com/ManuelReschke/Postify/internal/pkg/session"
	"github.com/ManuelReschke/Postify/internal/pkg/usercontext"
)

type HttpRouter struct {
	cfg      *config.Config
	ctrl     *controllers.Controller
	sessions *session.Manager
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware; the provider
	// routes belong to goth's session store
	app.Use(middleware.UserContextMiddleware(h.sessions, h.providerPaths()...))

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
	// the catch-all provider routes go last so /dashboard/login etc. never
	// reach them
	h.registerOAuthRoutes(app)
}

func NewHttpRouter(cfg *config.Config, ctrl *controllers.Controller, sessions *session.Manager) *HttpRouter {
	return &HttpRouter{cfg: cfg, ctrl: ctrl, sessions: sessions}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.RouteHome, h.ctrl.HandleHome)
	app.Get(constants.RouteLogin, h.ctrl.HandleLogin)
	app.Get(constants.RouteLogout, h.ctrl.HandleLogout)
	app.Get(constants.RouteHealth, h.ctrl.HandleHealth)
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfHandler := csrf.New(csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     usercontext.KeyCSRF,
		CookieName:     "csrf_",
		CookiePath:     "/",
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		Expiration:     1 * time.Hour,
		CookieSecure:   !h.cfg.App.IsDev(),
	})

	app.Get(constants.RouteDashboard, middleware.RequireAuth, csrfHandler, h.ctrl.HandleDashboard)
	app.Get(constants.RouteDashboard+"/:username", middleware.RequireAuth, csrfHandler, h.ctrl.HandleDashboard)
	// auth runs before csrf so an anonymous post gets 401, not 403
	app.Post(constants.RouteGeneratePost, middleware.RequireSessionAuth, csrfHandler, h.ctrl.HandleGeneratePost)
}

func (h HttpRouter) providerPaths() []string {
	names := h.ctrl.ProviderNames()
	paths := make([]string, 0, 2*len(names))
	for _, name := range names {
		paths = append(paths, "/"+name+"/login", "/"+name+"/callback")
	}
	return paths
}

func (h HttpRouter) registerOAuthRoutes(app *fiber.App) {
	app.Get(constants.RouteProviderLogin, h.ctrl.HandleProviderLogin)
	app.Get(constants.RouteProviderCallback, h.ctrl.HandleProviderCallback)
}

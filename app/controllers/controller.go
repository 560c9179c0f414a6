package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/app/models"
	"github.com/ManuelReschke/Postify/internal/pkg/cache"
	"github.com/ManuelReschke/Postify/internal/pkg/flash"
	"github.com/ManuelReschke/Postify/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Postify/internal/pkg/oauth"
	"github.com/ManuelReschke/Postify/internal/pkg/session"
	"github.com/ManuelReschke/Postify/internal/pkg/usercontext"
	"github.com/ManuelReschke/Postify/internal/pkg/viewmodel"
)

const layoutMain = "layouts/main"

// PostGenerator is implemented by postgen.Generator.
type PostGenerator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

// Controller holds the services the handlers need. It is built once at
// startup and shared by all requests.
type Controller struct {
	sessions  *session.Manager
	providers *oauth.Registry
	generator PostGenerator
	cache     *cache.Client
	counter   *counter.Counter
	log       *zap.Logger
	isDev     bool
}

// New builds the controller. cc may be nil when no cache is configured.
func New(sessions *session.Manager, providers *oauth.Registry, generator PostGenerator, cc *cache.Client, log *zap.Logger, isDev bool) *Controller {
	return &Controller{
		sessions:  sessions,
		providers: providers,
		generator: generator,
		cache:     cc,
		counter:   counter.New(cc),
		log:       log,
		isDev:     isDev,
	}
}

// ProviderNames lists the configured login providers.
func (ctrl *Controller) ProviderNames() []string {
	return ctrl.providers.Names()
}

func (ctrl *Controller) layout(c *fiber.Ctx, page string) viewmodel.Layout {
	userCtx := usercontext.GetUserContext(c)
	l := viewmodel.Layout{
		Page:          page,
		FromProtected: userCtx.IsLoggedIn,
		Msg:           flash.Get(c),
		CSRF:          usercontext.CSRFToken(c),
		IsDev:         ctrl.isDev,
	}
	if userCtx.User != nil {
		l.Username = userCtx.User.Name
		l.Picture = userCtx.User.Picture()
		l.Provider = userCtx.User.Provider
	}
	return l
}

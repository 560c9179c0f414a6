package constants

// Route constants shared by the router, controllers and middlewares
const (
	RouteHome         = "/"
	RouteLogin        = "/login"
	RouteLogout       = "/logout"
	RouteDashboard    = "/dashboard"
	RouteGeneratePost = "/generate_post"
	RouteHealth       = "/healthz"
	RouteAssets       = "/assets"

	// Per-provider routes; the segment is the provider name
	RouteProviderLogin    = "/:provider/login"
	RouteProviderCallback = "/:provider/callback"
)

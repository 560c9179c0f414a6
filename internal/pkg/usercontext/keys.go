package usercontext

// Locals keys shared by middlewares and controllers
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyFromProtected = "from_protected"
	KeyCSRF          = "csrf"
)

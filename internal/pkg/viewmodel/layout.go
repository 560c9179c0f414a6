package viewmodel

import "github.com/gofiber/fiber/v2"

// Layout carries what layouts/main.html needs on every page.
type Layout struct {
	Page          string
	FromProtected bool
	IsError       bool
	Msg           fiber.Map
	Username      string
	Picture       string
	Provider      string
	CSRF          string
	IsDev         bool
}

// ProviderLink is one sign-in button on the login page.
type ProviderLink struct {
	Name  string
	Label string
	URL   string
}

type Login struct {
	Layout
	Providers []ProviderLink
}

// Dashboard renders the generation form, the last result or the last error.
// UserInput and WritingStyle are echoed back so a failed attempt can be
// retried without retyping.
type Dashboard struct {
	Layout
	Post         string
	Error        string
	UserInput    string
	WritingStyle string
	Styles       []string
	// zero when no cache is configured
	GeneratedPosts int64
}

package models

import (
	"github.com/go-playground/validator/v10"
)

const (
	PROVIDER_GOOGLE   = "google"
	PROVIDER_LINKEDIN = "linkedin"

	// DefaultProfilePicture is the bundled placeholder shown when a provider
	// has no picture for the user.
	DefaultProfilePicture = "/assets/images/logo/postify-logo.svg"
)

// UserSession is the normalized identity kept in the browser session. Both
// login providers produce the same shape.
type UserSession struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	ProfilePicture string `json:"profile_picture"`
	Provider       string `json:"provider" validate:"oneof=google linkedin"`
}

func (u *UserSession) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// Picture returns the profile picture or the bundled placeholder.
func (u *UserSession) Picture() string {
	if u.ProfilePicture == "" {
		return DefaultProfilePicture
	}
	return u.ProfilePicture
}

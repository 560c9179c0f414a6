package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// GenerationRequest is the form submitted to /generate_post.
type GenerationRequest struct {
	UserInput    string `form:"user_input" validate:"required"`
	WritingStyle string `form:"writing_style"`
}

func (r *GenerationRequest) Validate() error {
	r.UserInput = strings.TrimSpace(r.UserInput)

	v := validator.New()

	return v.Struct(r)
}

type GenerationResult struct {
	Content string
}

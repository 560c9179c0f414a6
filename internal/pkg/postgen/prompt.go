package postgen

import (
	"strings"
	"text/template"

	"github.com/ManuelReschke/Postify/app/models"
)

const postTemplate = `You are a professional social-media copywriter who writes LinkedIn posts.

Write one post based on the notes below. Keep it engaging and skimmable:
a strong opening line, short paragraphs, at most a few relevant emojis and
three to five hashtags at the end. If the notes mention recent events you are
unsure about, use the search_news tool (when it is available) before writing.

Notes from the author:
{{.UserInput}}

Writing style: {{.WritingStyle}}

Reply with the post text only, without any preamble.`

var promptTemplate = template.Must(template.New("post").Parse(postTemplate))

// RenderPrompt substitutes both request fields into the post template.
func RenderPrompt(req models.GenerationRequest) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, req); err != nil {
		return "", err
	}
	return b.String(), nil
}

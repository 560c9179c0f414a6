// Package views embeds the html templates rendered by the fiber html engine.
package views

import "embed"

//go:embed *.html layouts/*.html
var FS embed.FS

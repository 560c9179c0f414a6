// Package public embeds the static files served under /assets.
package public

import "embed"

//go:embed assets
var FS embed.FS

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// GetGravatarURL returns the Gravatar image for an email address. Gravatar
// answers with its generic silhouette when the address has no avatar, so the
// URL is always usable. Default size is 200px if not specified.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 200
	}

	email = strings.ToLower(strings.TrimSpace(email))
	hash := sha256.Sum256([]byte(email))

	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=mp", hex.EncodeToString(hash[:]), size)
}

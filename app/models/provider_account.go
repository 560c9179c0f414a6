package models

// ProviderToken is the access token obtained by the manual LinkedIn exchange.
// It lives only as long as the session and is never refreshed.
type ProviderToken struct {
	AccessToken string `json:"-"`
}

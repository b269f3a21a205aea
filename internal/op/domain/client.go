package domain

import "time"

type Client struct {
	ID           string
	Name         string
	Secret       string
	CallbackURLs []string // exact-match redirect URIs
	Scopes       []string // full allowed-scope set, "openid" included
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllowsCallback reports whether uri is one of the client's registered
// redirect URIs. Comparison is exact, no normalisation.
func (c Client) AllowsCallback(uri string) bool {
	for _, cb := range c.CallbackURLs {
		if cb == uri {
			return true
		}
	}
	return false
}

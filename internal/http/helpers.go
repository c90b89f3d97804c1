package http

import "net/url"

// apiOrigin returns scheme://host of a public API URL, or "" when the page
// talks to its own origin.
func apiOrigin(publicAPIURL string) string {
	if publicAPIURL == "" {
		return ""
	}
	u, err := url.Parse(publicAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

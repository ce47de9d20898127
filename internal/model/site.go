package model

import (
	"net/url"
	"strings"
)

// Site identifies the source an Item was scraped from.
// A single Site value is shared read-only by every Item of a run.
type Site struct {
	// Name is the human-readable source name (e.g. "YouJizz").
	Name string `json:"name"`

	// URL is the base address of the source, e.g. "https://www.youjizz.com".
	URL string `json:"url"`

	// Favicon is the absolute address of the source's favicon.
	// Empty when the source definition does not declare one.
	Favicon string `json:"favicon,omitempty"`
}

// Host returns the host of the site's base address without any "www." prefix.
// It returns an empty string if URL cannot be parsed.
func (s *Site) Host() string {
	if s == nil {
		return ""
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

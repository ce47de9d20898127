package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Item is one scraped record.
//
// The crawler creates an Item from a listing page with only URL and
// ThumbnailURL set, then completes Title, Duration and Tags from the item's
// detail page before handing it to a sink.
type Item struct {
	// Site is the shared source reference.
	Site *Site `json:"site"`

	// URL is the absolute address of the item's detail page.
	URL string `json:"url"`

	// ThumbnailURL is the absolute address of the item's preview image.
	ThumbnailURL string `json:"thumbnailUrl"`

	// Title is the item title as extracted from the detail page.
	Title string `json:"title"`

	// Duration is the play length in seconds. Zero means unknown.
	Duration int `json:"duration"`

	// Tags are the item's tags in document order.
	Tags []string `json:"tags"`
}

// Fingerprint returns a stable identifier for the item derived from its
// site host and URL. Two scrapes of the same item yield the same fingerprint.
func (i *Item) Fingerprint() string {
	var b strings.Builder
	b.WriteString(i.Site.Host())
	b.WriteByte('\n')
	b.WriteString(i.URL)

	sum := sha3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

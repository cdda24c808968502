package views

import (
	"time"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/portabletext"
	"github.com/eringen/sanitypress/sanity"
)

// ImageURLFunc resolves an image reference to a URL of at most w x h pixels.
// A zero dimension leaves that side unconstrained.
type ImageURLFunc func(img *sanity.Image, w, h int) string

// Site holds site-wide settings every page needs. Nothing is hardcoded in
// templates.
type Site struct {
	Name        string // SITE_NAME
	URL         string // SITE_URL
	Description string // SITE_DESCRIPTION
	Location    *time.Location
	ImageURL    ImageURLFunc
	Body        portabletext.Serializers
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}

// PostView is everything the detail page renders.
type PostView struct {
	Post      content.Post
	Form      *content.CommentForm
	CSRFToken string
}

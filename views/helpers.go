package views

import (
	"bytes"
	"context"
	"encoding/json"
	"html"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/sanity"
)

// TimeLayout mirrors the en-US locale string readers see on a post page.
const TimeLayout = "1/2/2006, 3:04:05 PM"

var esc = html.EscapeString

// component adapts a buffered writer func into a templ.Component so a partial
// render never reaches the response.
func component(fn func(ctx context.Context, b *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// FormatTime renders t in loc using TimeLayout. The zero time renders empty.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimeLayout)
}

// buildURL joins path segments onto a base URL.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// PostURL is the absolute URL of a post's detail page.
func PostURL(site Site, p content.Post) string {
	return buildURL(site.URL, "post", p.Slug.Current)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block for the listing page.
func WebsiteJsonLD(site Site) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      buildURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site Site, post content.Post) string {
	postURL := PostURL(site, post)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Description,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !post.CreatedAt.IsZero() {
		data["datePublished"] = post.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !post.UpdatedAt.IsZero() {
		data["dateModified"] = post.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if post.Author.Name != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  post.Author.Name,
		}
	}
	if img := site.image(post.MainImage, 1200, 630); img != "" {
		data["image"] = img
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func (s Site) image(img *sanity.Image, w, h int) string {
	if s.ImageURL == nil || img == nil {
		return ""
	}
	return s.ImageURL(img, w, h)
}

package sanitypress

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/portabletext"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

// feedExcerptLen caps the body excerpt used when a post has no description.
const feedExcerptLen = 280

func (a *App) renderRSS(c echo.Context, posts []content.Post) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	var latest time.Time
	for _, p := range posts {
		postURL := BuildURL(base, "post", p.Slug.Current)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: feedDescription(p),
			Author:      p.Author.Name,
			PubDate:     rfc1123(p.CreatedAt),
			GUID:        postURL,
		})
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:         a.Config.Name,
			Link:          BuildURL(base),
			Description:   a.Config.Description,
			LastBuildDate: rfc1123(latest),
			Items:         items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}

func feedDescription(p content.Post) string {
	if p.Description != "" {
		return p.Description
	}
	text := []rune(portabletext.PlainText(p.Body))
	if len(text) > feedExcerptLen {
		return string(text[:feedExcerptLen]) + "…"
	}
	return string(text)
}

func rfc1123(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC1123Z)
}

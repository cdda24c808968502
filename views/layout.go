package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// Layout wraps body in the document shell shared by every page.
func Layout(site Site, meta PageMeta, body templ.Component) templ.Component {
	return component(func(ctx context.Context, b *bytes.Buffer) error {
		title := meta.Title
		if title == "" {
			title = site.Name
		} else if site.Name != "" && title != site.Name {
			title += " | " + site.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		b.WriteString(`<title>` + esc(title) + `</title>`)
		if desc != "" {
			b.WriteString(`<meta name="description" content="` + esc(desc) + `"/>`)
			b.WriteString(`<meta property="og:description" content="` + esc(desc) + `"/>`)
		}
		b.WriteString(`<meta property="og:title" content="` + esc(title) + `"/>`)
		b.WriteString(`<meta property="og:type" content="` + esc(ogType) + `"/>`)
		if meta.URL != "" {
			b.WriteString(`<meta property="og:url" content="` + esc(meta.URL) + `"/>`)
			b.WriteString(`<link rel="canonical" href="` + esc(meta.URL) + `"/>`)
		}
		if meta.Image != "" {
			b.WriteString(`<meta property="og:image" content="` + esc(meta.Image) + `"/>`)
		}
		b.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + esc(site.Name) + `" href="/feed.xml"/>`)
		b.WriteString(`<link rel="stylesheet" href="/public/style.css"/>`)
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the payload cannot close the tag.
			b.WriteString(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
		}
		b.WriteString(`</head><body>`)

		b.WriteString(`<header class="mx-auto flex max-w-7xl justify-between p-5">`)
		b.WriteString(`<a href="/" class="site-name text-2xl font-bold">` + esc(site.Name) + `</a>`)
		b.WriteString(`<a href="/feed.xml" class="rounded-full border border-green-600 px-4 py-1 text-green-600">Follow</a>`)
		b.WriteString(`</header><main>`)
		if body != nil {
			if err := body.Render(ctx, b); err != nil {
				return err
			}
		}
		b.WriteString(`</main></body></html>`)
		return nil
	})
}

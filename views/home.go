package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/sanitypress/content"
)

// Home is the listing page: a banner and one card per post.
func Home(site Site, posts []content.Post) templ.Component {
	body := component(func(_ context.Context, b *bytes.Buffer) error {
		b.WriteString(`<section class="banner flex items-center justify-between border-y border-black bg-yellow-400 py-10 lg:py-0">`)
		b.WriteString(`<div class="space-y-5 px-10"><h1 class="max-w-xl font-serif text-6xl">` + esc(site.Name) + `</h1>`)
		if site.Description != "" {
			b.WriteString(`<h2>` + esc(site.Description) + `</h2>`)
		}
		b.WriteString(`</div></section>`)

		if len(posts) == 0 {
			b.WriteString(`<p class="empty p-5">No posts yet.</p>`)
			return nil
		}
		b.WriteString(`<div class="posts grid grid-cols-1 gap-3 p-2 sm:grid-cols-2 md:gap-6 md:p-6 lg:grid-cols-3">`)
		for _, p := range posts {
			writeCard(b, site, p)
		}
		b.WriteString(`</div>`)
		return nil
	})
	meta := PageMeta{
		URL:    buildURL(site.URL),
		JSONLD: WebsiteJsonLD(site),
	}
	return Layout(site, meta, body)
}

func writeCard(b *bytes.Buffer, site Site, p content.Post) {
	b.WriteString(`<a class="post-card" href="` + esc(p.Path()) + `"><div class="group cursor-pointer overflow-hidden rounded-lg border">`)
	if src := site.image(p.MainImage, 800, 480); src != "" {
		b.WriteString(`<img class="h-60 w-full object-cover" src="` + esc(src) + `" alt="` + esc(p.Title) + `" loading="lazy"/>`)
	}
	b.WriteString(`<div class="flex justify-between bg-white p-5"><div>`)
	b.WriteString(`<p class="text-lg font-bold">` + esc(p.Title) + `</p>`)
	b.WriteString(`<p class="text-xs">` + esc(byline(p)) + `</p></div>`)
	if src := site.image(p.Author.Image, 96, 96); src != "" {
		b.WriteString(`<img class="h-12 w-12 rounded-full" src="` + esc(src) + `" alt="` + esc(p.Author.Name) + `"/>`)
	}
	b.WriteString(`</div></div></a>`)
}

func byline(p content.Post) string {
	switch {
	case p.Description != "" && p.Author.Name != "":
		return p.Description + " by " + p.Author.Name
	case p.Author.Name != "":
		return "by " + p.Author.Name
	default:
		return p.Description
	}
}

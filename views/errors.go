package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"
)

// NotFound is rendered for unknown routes and unknown slugs.
func NotFound(site Site) templ.Component {
	return Layout(site, PageMeta{Title: "Page not found"}, message(
		"404", "This page could not be found.",
	))
}

// ServerError is rendered when a page cannot be produced, including when the
// CMS is unreachable and nothing is cached.
func ServerError(site Site) templ.Component {
	return Layout(site, PageMeta{Title: "Something went wrong"}, message(
		"Something went wrong", "The page could not be loaded. Please try again in a moment.",
	))
}

func message(heading, text string) templ.Component {
	return component(func(_ context.Context, b *bytes.Buffer) error {
		b.WriteString(`<section class="error-page mx-auto max-w-2xl p-10 text-center">`)
		b.WriteString(`<h1 class="text-4xl font-bold">` + esc(heading) + `</h1>`)
		b.WriteString(`<p class="mt-5">` + esc(text) + `</p>`)
		b.WriteString(`<p class="mt-5"><a class="text-green-600" href="/">Back to all posts</a></p>`)
		b.WriteString(`</section>`)
		return nil
	})
}

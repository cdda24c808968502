package views

import (
	"bytes"
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/portabletext"
)

// ThankYouMessage replaces the comment form once a comment was accepted.
const ThankYouMessage = "Thank you for submitting your comment!"

func (s Site) serializers() portabletext.Serializers {
	if s.Body.List == nil || s.Body.ListItem == nil || s.Body.UnknownStyle == nil ||
		s.Body.UnknownMark == nil || s.Body.UnknownType == nil {
		return portabletext.DefaultSerializers()
	}
	return s.Body
}

// Post is the detail page of a single post with its comment form and
// approved comments.
func Post(site Site, v PostView) templ.Component {
	p := v.Post
	body := component(func(ctx context.Context, b *bytes.Buffer) error {
		if src := site.image(p.MainImage, 1600, 480); src != "" {
			b.WriteString(`<img class="h-40 w-full object-cover" src="` + esc(src) + `" alt="` + esc(p.Title) + `"/>`)
		}
		b.WriteString(`<article class="mx-auto max-w-3xl p-5">`)
		b.WriteString(`<h1 class="mt-10 mb-3 text-3xl">` + esc(p.Title) + `</h1>`)
		if p.Description != "" {
			b.WriteString(`<h2 class="mb-2 text-xl font-light text-gray-500">` + esc(p.Description) + `</h2>`)
		}
		b.WriteString(`<div class="flex items-center space-x-2">`)
		if src := site.image(p.Author.Image, 96, 96); src != "" {
			b.WriteString(`<img class="h-10 w-10 rounded-full" src="` + esc(src) + `" alt="` + esc(p.Author.Name) + `"/>`)
		}
		b.WriteString(`<p class="text-sm font-extralight">Blog post by <span class="text-green-600">` + esc(p.Author.Name) + `</span>`)
		if ts := FormatTime(p.CreatedAt, site.Location); ts != "" {
			b.WriteString(` - Published at <time datetime="` + esc(p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")) + `">` + esc(ts) + `</time>`)
		}
		b.WriteString(`</p></div><div class="post-body mt-10">`)
		if err := portabletext.Render(p.Body, site.serializers()).Render(ctx, b); err != nil {
			return err
		}
		b.WriteString(`</div></article><hr class="mx-auto my-5 max-w-lg border border-yellow-500"/>`)

		form := v.Form
		if form == nil {
			form = content.NewCommentForm(content.CommentInput{PostID: p.ID})
		}
		if form.State == content.FormSubmitted {
			writeThankYou(b)
		} else {
			writeCommentForm(b, p, form, v.CSRFToken)
		}
		writeComments(b, p.Comments)
		return nil
	})
	meta := PageMeta{
		Title:       p.Title,
		Description: p.Description,
		URL:         PostURL(site, p),
		OGType:      "article",
		Image:       site.image(p.MainImage, 1200, 630),
		JSONLD:      BlogPostingJsonLD(site, p),
	}
	return Layout(site, meta, body)
}

func writeThankYou(b *bytes.Buffer) {
	b.WriteString(`<div class="comment-thanks mx-auto my-10 flex max-w-2xl flex-col bg-yellow-500 p-10 text-white" role="status">`)
	b.WriteString(`<h3 class="text-3xl font-bold">` + ThankYouMessage + `</h3>`)
	b.WriteString(`<p>Once it has been approved, it will appear below!</p></div>`)
}

type formField struct {
	name, label, kind, placeholder, value string
}

func writeCommentForm(b *bytes.Buffer, p content.Post, form *content.CommentForm, csrf string) {
	b.WriteString(`<form class="comment-form mx-auto mb-10 flex max-w-2xl flex-col p-5" method="post" action="` + esc(p.Path()) + `/comment">`)
	b.WriteString(`<h3 class="text-sm text-yellow-500">Enjoyed this article?</h3>`)
	b.WriteString(`<h4 class="text-3xl font-bold">Leave a comment below!</h4><hr class="mt-2 py-3"/>`)
	b.WriteString(`<input type="hidden" name="_csrf" value="` + esc(csrf) + `"/>`)
	b.WriteString(`<input type="hidden" name="_id" value="` + esc(p.ID) + `"/>`)
	if form.SubmitError != "" {
		b.WriteString(`<p class="submit-error mb-5 rounded border border-red-500 p-3 text-red-500" role="alert">` + esc(form.SubmitError) + `</p>`)
	}

	fields := []formField{
		{"name", "Name", "text", "John Appleseed", form.Input.Name},
		{"email", "Email", "email", "you@example.com", form.Input.Email},
		{"comment", "Comment", "textarea", "Your comment", form.Input.Comment},
	}
	for _, f := range fields {
		b.WriteString(`<label class="mb-5 block"><span class="text-gray-700">` + f.label + `</span>`)
		invalid := ""
		if form.Errors[f.name] != "" {
			invalid = ` aria-invalid="true" aria-describedby="` + f.name + `-error"`
		}
		if f.kind == "textarea" {
			b.WriteString(`<textarea class="form-textarea mt-1 block w-full rounded border px-3 py-2 shadow" rows="8" name="` + f.name +
				`" placeholder="` + esc(f.placeholder) + `" required` + invalid + `>` + esc(f.value) + `</textarea>`)
		} else {
			b.WriteString(`<input class="form-input mt-1 block w-full rounded border px-3 py-2 shadow" type="` + f.kind + `" name="` + f.name +
				`" placeholder="` + esc(f.placeholder) + `" value="` + esc(f.value) + `" required` + invalid + `/>`)
		}
		if msg := form.Errors[f.name]; msg != "" {
			b.WriteString(`<span class="field-error text-red-500" id="` + f.name + `-error">` + esc(msg) + `</span>`)
		}
		b.WriteString(`</label>`)
	}
	b.WriteString(`<input type="submit" value="Submit" class="cursor-pointer rounded bg-yellow-500 py-2 px-4 font-bold text-white shadow hover:bg-yellow-400"/>`)
	b.WriteString(`</form>`)
}

func writeComments(b *bytes.Buffer, comments []content.Comment) {
	b.WriteString(`<div class="comments mx-auto my-10 flex max-w-2xl flex-col space-y-2 p-10 shadow shadow-yellow-500">`)
	b.WriteString(`<h3 class="text-4xl">Comments</h3><hr class="pb-2"/>`)
	for _, c := range comments {
		if !c.Approved {
			continue
		}
		b.WriteString(`<div class="comment"><p><span class="text-yellow-500">` + esc(c.Name) + `:</span> ` + esc(c.Comment) + `</p></div>`)
	}
	b.WriteString(`</div>`)
}

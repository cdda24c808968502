// Package content holds the blog's document types and the GROQ queries that
// load them from Sanity.
package content

import (
	"net/url"
	"time"

	"github.com/eringen/sanitypress/portabletext"
	"github.com/eringen/sanitypress/sanity"
)

// Post is a blog post. Comments is only populated by the detail query and
// holds approved comments only.
type Post struct {
	ID          string               `json:"_id"`
	CreatedAt   time.Time            `json:"_createdAt"`
	UpdatedAt   time.Time            `json:"_updatedAt"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Slug        Slug                 `json:"slug"`
	MainImage   *sanity.Image        `json:"mainImage,omitempty"`
	Author      Author               `json:"author"`
	Body        []portabletext.Block `json:"body,omitempty"`
	Comments    []Comment            `json:"comments,omitempty"`
}

// Path is the route of the post's detail page.
func (p Post) Path() string {
	return PostPath(p.Slug.Current)
}

// PostPath returns "/post/{slug}".
func PostPath(slug string) string {
	return "/post/" + url.PathEscape(slug)
}

// Slug is Sanity's slug object.
type Slug struct {
	Current string `json:"current"`
}

// Author is the denormalized author projection.
type Author struct {
	Name  string        `json:"name"`
	Image *sanity.Image `json:"image,omitempty"`
}

// Comment is a reader comment. Approval happens outside this application.
type Comment struct {
	ID        string           `json:"_id"`
	CreatedAt time.Time        `json:"_createdAt"`
	Name      string           `json:"name"`
	Comment   string           `json:"comment"`
	Approved  bool             `json:"approved"`
	Post      sanity.Reference `json:"post"`
}

// approvedOnly drops anything the CMS returned without the approval flag.
func approvedOnly(comments []Comment) []Comment {
	out := comments[:0]
	for _, c := range comments {
		if c.Approved {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

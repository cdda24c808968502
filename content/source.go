package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eringen/sanitypress/sanity"
)

// ErrNotFound is returned when no post matches a slug.
var ErrNotFound = errors.New("post not found")

const (
	// ListingQuery loads every post for the home page, unfiltered and unordered.
	ListingQuery = `*[_type == "post"]{_id, title, author -> {name, image}, description, mainImage, slug}`

	// PathsQuery enumerates the slugs of every post.
	PathsQuery = `*[_type == "post"]{_id, slug {current}}`

	// PostQuery loads one post by slug with its author and approved comments.
	PostQuery = `*[_type == "post" && slug.current == $slug][0]{
  _id,
  _createdAt,
  title,
  author -> {name, image},
  'comments': *[_type == "comment" && post._ref == ^._id && approved == true]{_id, _createdAt, name, comment, approved, post},
  description,
  mainImage,
  slug,
  body
}`

	// FeedQuery loads the newest posts for RSS and the sitemap. The body is
	// only read when a post has no description.
	FeedQuery = `*[_type == "post" && defined(slug.current)] | order(_createdAt desc){_id, _createdAt, _updatedAt, title, author -> {name}, description, slug, body}`
)

// Source loads posts and writes comments through a Sanity client.
type Source struct {
	client *sanity.Client
}

// NewSource returns a Source backed by client.
func NewSource(client *sanity.Client) *Source {
	return &Source{client: client}
}

// Client returns the underlying Sanity client.
func (s *Source) Client() *sanity.Client {
	return s.client
}

// ListPosts runs ListingQuery. An empty dataset yields an empty slice.
func (s *Source) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := s.client.Fetch(ctx, ListingQuery, nil, &posts); err != nil {
		if errors.Is(err, sanity.ErrNoResult) {
			return nil, nil
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// ListFeed runs FeedQuery.
func (s *Source) ListFeed(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := s.client.Fetch(ctx, FeedQuery, nil, &posts); err != nil {
		if errors.Is(err, sanity.ErrNoResult) {
			return nil, nil
		}
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return posts, nil
}

// ListSlugs runs PathsQuery and returns the non-empty slugs.
func (s *Source) ListSlugs(ctx context.Context) ([]string, error) {
	var rows []struct {
		ID   string `json:"_id"`
		Slug *Slug  `json:"slug"`
	}
	if err := s.client.Fetch(ctx, PathsQuery, nil, &rows); err != nil {
		if errors.Is(err, sanity.ErrNoResult) {
			return nil, nil
		}
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	slugs := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Slug != nil && r.Slug.Current != "" {
			slugs = append(slugs, r.Slug.Current)
		}
	}
	return slugs, nil
}

// GetPost runs PostQuery for slug. A missing post yields ErrNotFound.
func (s *Source) GetPost(ctx context.Context, slug string) (Post, error) {
	var post Post
	err := s.client.Fetch(ctx, PostQuery, map[string]any{"slug": slug}, &post)
	if err != nil {
		if errors.Is(err, sanity.ErrNoResult) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("get post %q: %w", slug, err)
	}
	post.Comments = approvedOnly(post.Comments)
	return post, nil
}

// SubmitComment creates an unapproved comment referencing in.PostID.
func (s *Source) SubmitComment(ctx context.Context, in CommentInput) error {
	doc := map[string]any{
		"_type":    "comment",
		"name":     in.Name,
		"email":    in.Email,
		"comment":  in.Comment,
		"approved": false,
		"post": sanity.Reference{
			Type: "reference",
			Ref:  in.PostID,
		},
	}
	if _, err := s.client.Mutate(ctx, sanity.Mutation{Create: doc}); err != nil {
		return fmt.Errorf("create comment on %s: %w", in.PostID, err)
	}
	return nil
}

// ImageURL resolves an image to a URL, sized when w or h are positive.
func (s *Source) ImageURL(img *sanity.Image, w, h int) string {
	b := s.client.Image(img).AutoFormat()
	if w > 0 {
		b.Width(w)
	}
	if h > 0 {
		b.Height(h)
	}
	if w > 0 && h > 0 {
		b.Fit("crop")
	}
	return b.URL()
}

const (
	bodyImageWidth   = 1200
	bodyImageQuality = 80
)

// RawImageURL resolves an image block from a Portable Text body.
func (s *Source) RawImageURL(raw json.RawMessage) string {
	var img sanity.Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return ""
	}
	return s.client.Image(&img).Width(bodyImageWidth).Fit("max").Quality(bodyImageQuality).AutoFormat().URL()
}

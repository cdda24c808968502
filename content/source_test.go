package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eringen/sanitypress/sanity"
)

// newTestSource serves query results by matching a fragment of the GROQ
// query text.
func newTestSource(t *testing.T, results map[string]string, onMutate func(body map[string]any)) *Source {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/data/mutate/") {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if onMutate != nil {
				onMutate(body)
			}
			w.Write([]byte(`{"transactionId":"tx","results":[{"id":"c1","operation":"create"}]}`))
			return
		}
		q := r.URL.Query().Get("query")
		for frag, result := range results {
			if strings.Contains(q, frag) {
				w.Write([]byte(`{"ms":1,"result":` + result + `}`))
				return
			}
		}
		w.Write([]byte(`{"ms":1,"result":null}`))
	}))
	t.Cleanup(srv.Close)
	client, err := sanity.New(sanity.Config{ProjectID: "p", Dataset: "d", Token: "tok", APIHost: srv.URL})
	if err != nil {
		t.Fatalf("sanity.New: %v", err)
	}
	return NewSource(client)
}

func TestListPosts(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"mainImage, slug}": `[
			{"_id":"a","title":"Hello","description":"d","slug":{"current":"hello-world"},"author":{"name":"Ada"}},
			{"_id":"b","title":"Two","slug":{"current":"two"},"author":null}
		]`,
	}, nil)
	posts, err := src.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("len = %d", len(posts))
	}
	if posts[0].Path() != "/post/hello-world" || posts[0].Author.Name != "Ada" {
		t.Errorf("posts[0] = %+v", posts[0])
	}
	if posts[1].Author.Name != "" {
		t.Errorf("null author should decode to zero value")
	}
}

func TestListSlugsSkipsEmpty(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"slug {current}": `[{"_id":"a","slug":{"current":"a"}},{"_id":"b","slug":null},{"_id":"c","slug":{"current":""}}]`,
	}, nil)
	slugs, err := src.ListSlugs(context.Background())
	if err != nil {
		t.Fatalf("ListSlugs: %v", err)
	}
	if len(slugs) != 1 || slugs[0] != "a" {
		t.Errorf("slugs = %v", slugs)
	}
}

func TestGetPostNotFound(t *testing.T) {
	src := newTestSource(t, nil, nil)
	_, err := src.GetPost(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPostKeepsOnlyApprovedComments(t *testing.T) {
	src := newTestSource(t, map[string]string{
		"slug.current == $slug": `{
			"_id":"p1","_createdAt":"2021-10-22T08:10:11Z","title":"Hello","slug":{"current":"hello-world"},
			"body":[{"_type":"block","children":[{"_type":"span","text":"Hi"}]}],
			"comments":[
				{"_id":"c1","name":"A","comment":"ok","approved":true},
				{"_id":"c2","name":"B","comment":"spam","approved":false}
			]}`,
	}, nil)
	post, err := src.GetPost(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if len(post.Comments) != 1 || post.Comments[0].ID != "c1" {
		t.Errorf("comments = %+v", post.Comments)
	}
	if post.CreatedAt.Year() != 2021 || len(post.Body) != 1 {
		t.Errorf("post = %+v", post)
	}
}

func TestGetPostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	client, _ := sanity.New(sanity.Config{ProjectID: "p", Dataset: "d", APIHost: srv.URL})
	_, err := NewSource(client).GetPost(context.Background(), "x")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want a fetch error", err)
	}
}

func TestSubmitCommentCreatesUnapprovedComment(t *testing.T) {
	var got map[string]any
	src := newTestSource(t, nil, func(body map[string]any) { got = body })
	err := src.SubmitComment(context.Background(), CommentInput{PostID: "p1", Name: "Ada", Email: "a@b.c", Comment: "Hi"})
	if err != nil {
		t.Fatalf("SubmitComment: %v", err)
	}
	muts, _ := got["mutations"].([]any)
	if len(muts) != 1 {
		t.Fatalf("mutations = %v", got)
	}
	doc := muts[0].(map[string]any)["create"].(map[string]any)
	if doc["_type"] != "comment" || doc["approved"] != false || doc["name"] != "Ada" {
		t.Errorf("doc = %v", doc)
	}
	ref := doc["post"].(map[string]any)
	if ref["_ref"] != "p1" || ref["_type"] != "reference" {
		t.Errorf("post ref = %v", ref)
	}
}

func TestImageURL(t *testing.T) {
	src := newTestSource(t, nil, nil)
	img := &sanity.Image{Asset: &sanity.Reference{Ref: "image-abc-100x50-jpg"}}
	got := src.ImageURL(img, 0, 0)
	if got != "https://cdn.sanity.io/images/p/d/abc-100x50.jpg?auto=format" {
		t.Errorf("ImageURL = %q", got)
	}
	if src.ImageURL(nil, 10, 10) != "" {
		t.Error("nil image should resolve to empty URL")
	}
	raw := json.RawMessage(`{"_type":"image","asset":{"_ref":"image-abc-100x50-jpg"}}`)
	body := src.RawImageURL(raw)
	if !strings.Contains(body, "abc-100x50.jpg") || !strings.Contains(body, "q=80") || !strings.Contains(body, "w=1200") {
		t.Errorf("RawImageURL = %q", body)
	}
}

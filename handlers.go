package sanitypress

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/views"
)

const (
	// maxCommentBody caps the JSON body of /api/createComment.
	maxCommentBody = 64 << 10

	// RateLimitedMessage is shown when an address submits too many comments.
	RateLimitedMessage = "You are commenting too quickly. Please wait a minute and try again."
)

// CommentResponse is the body of every /api/createComment response.
type CommentResponse struct {
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
	Fields  content.FieldErrors `json:"fields,omitempty"`
}

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Content.ListPosts(c.Request().Context())
	if err != nil {
		return upstreamError("list posts", err)
	}
	return Render(c, a.Views.Home(a.site, posts))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, ok, err := a.loadPost(c, slug)
	if !ok {
		return err
	}
	form := content.NewCommentForm(content.CommentInput{PostID: post.ID})
	if a.takeCommentFlash(c, slug) {
		form.State = content.FormSubmitted
	}
	return a.renderPost(c, http.StatusOK, post, form)
}

// loadPost resolves slug through the page cache. When ok is false the
// response has been handled and err must be returned as is.
func (a *App) loadPost(c echo.Context, slug string) (content.Post, bool, error) {
	if a.detail.Fallback == FallbackNone && !a.Pages.Contains(slug) {
		return content.Post{}, false, RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
	}
	post, state, err := a.Pages.Get(c.Request().Context(), slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return content.Post{}, false, RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
		}
		return content.Post{}, false, upstreamError("load post "+slug, err)
	}
	c.Response().Header().Set("X-Cache", state.String())
	return post, true, nil
}

func (a *App) renderPost(c echo.Context, code int, post content.Post, form *content.CommentForm) error {
	return RenderStatus(c, code, a.Views.Post(a.site, views.PostView{
		Post:      post,
		Form:      form,
		CSRFToken: CsrfToken(c),
	}))
}

// handleCommentForm is the HTML comment flow. Invalid input is re-rendered
// with inline errors and never reaches the CMS; success redirects back to
// the post, which then shows the thank-you state.
func (a *App) handleCommentForm(c echo.Context) error {
	slug := c.Param("slug")
	post, ok, err := a.loadPost(c, slug)
	if !ok {
		return err
	}

	form := content.NewCommentForm(content.CommentInput{
		PostID:  post.ID,
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Comment: c.FormValue("comment"),
	})
	if !form.Validate() {
		return a.renderPost(c, http.StatusUnprocessableEntity, post, form)
	}
	if !a.allowComment(c) {
		form.Fail(RateLimitedMessage)
		return a.renderPost(c, http.StatusTooManyRequests, post, form)
	}
	if err := form.Submit(c.Request().Context(), a.Content); err != nil {
		c.Logger().Errorf("submit comment on %s: %v", slug, err)
		return a.renderPost(c, http.StatusBadGateway, post, form)
	}

	if err := setCommentFlash(c, slug); err != nil {
		c.Logger().Warnf("comment flash: %v", err)
		return a.renderPost(c, http.StatusOK, post, form)
	}
	return c.Redirect(http.StatusSeeOther, post.Path())
}

// handleCreateComment is the JSON comment API.
func (a *App) handleCreateComment(c echo.Context) error {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxCommentBody)

	var in content.CommentInput
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		return c.JSON(http.StatusBadRequest, CommentResponse{Error: "Invalid comment payload"})
	}
	form := content.NewCommentForm(in)
	if !form.Validate() {
		return c.JSON(http.StatusBadRequest, CommentResponse{Error: "Invalid comment", Fields: form.Errors})
	}
	if !a.allowComment(c) {
		return c.JSON(http.StatusTooManyRequests, CommentResponse{Error: RateLimitedMessage})
	}
	if err := form.Submit(req.Context(), a.Content); err != nil {
		c.Logger().Errorf("create comment for %s: %v", in.PostID, err)
		return c.JSON(http.StatusBadGateway, CommentResponse{Error: "Couldn't submit comment"})
	}
	return c.JSON(http.StatusOK, CommentResponse{Message: "Comment submitted"})
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Content.ListFeed(c.Request().Context())
	if err != nil {
		return upstreamError("list posts for sitemap", err)
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Content.ListFeed(c.Request().Context())
	if err != nil {
		return upstreamError("list posts for feed", err)
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\n\nSitemap: "+BuildURL(a.Config.URL, "sitemap.xml")+"\n")
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// allowComment applies the per-IP submission limit and reports the
// remaining allowance in X-RateLimit-Remaining.
func (a *App) allowComment(c echo.Context) bool {
	ip := c.RealIP()
	ok := a.limiter.Allow(ip)
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(a.limiter.Remaining(ip)))
	return ok
}

// upstreamError reports a CMS failure as 502 Bad Gateway.
func upstreamError(op string, err error) error {
	return echo.NewHTTPError(http.StatusBadGateway).SetInternal(fmt.Errorf("%s: %w", op, err))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.site))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

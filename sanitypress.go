// Package sanitypress is a server-rendered blog front end for content stored
// in the Sanity CMS, built with Go, Echo, and templ.
//
// Posts are listed on "/" and rendered on "/post/{slug}" from a
// stale-while-revalidate page cache. Readers can leave comments, which are
// written to the CMS unapproved and only shown once approved there.
package sanitypress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/sanitypress/content"
	"github.com/eringen/sanitypress/portabletext"
	"github.com/eringen/sanitypress/sanity"
	"github.com/eringen/sanitypress/views"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ViewFuncs holds the templ components the handlers render. DefaultViews
// returns the built-in ones.
type ViewFuncs struct {
	Home        func(site views.Site, posts []content.Post) templ.Component
	Post        func(site views.Site, v views.PostView) templ.Component
	NotFound    func(site views.Site) templ.Component
	ServerError func(site views.Site) templ.Component
}

// DefaultViews returns the built-in templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:        views.Home,
		Post:        views.Post,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App is the central sanitypress application. It wires together the CMS
// source, page cache, handlers, middleware, and templates.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Content   *content.Source
	Pages     *PageCache
	Snapshots *Store
	Views     ViewFuncs

	site         views.Site
	detail       DetailPage
	limiter      *SubmitLimiter
	customRoutes []func(*App)
	staticDir    string
	now          func() time.Time

	mu     sync.Mutex
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
}

// ErrClosed is returned by Setup and Start once Close has run.
var ErrClosed = errors.New("sanitypress: app closed")

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.Level())

	a := &App{
		Config:    cfg,
		Echo:      e,
		Views:     DefaultViews(),
		detail:    PostPage,
		staticDir: "public",
		now:       time.Now,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the configuration and builds everything Start serves:
// CMS source, snapshot store, page cache, middleware and routes. Cached
// snapshots are restored but pages are not fetched; see WarmUp.
func (a *App) Setup() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return a.setup()
}

func (a *App) setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("sanitypress: SESSION_SECRET is required")
	}
	loc, err := a.Config.Location()
	if err != nil {
		return fmt.Errorf("sanitypress: %w", err)
	}

	if a.Content == nil {
		scfg, err := a.Config.Sanity()
		if err != nil {
			return fmt.Errorf("sanitypress: %w", err)
		}
		client, err := sanity.New(scfg, sanity.WithUserAgent("sanitypress/"+Version))
		if err != nil {
			return fmt.Errorf("sanitypress: init sanity client: %w", err)
		}
		a.Content = content.NewSource(client)
	}
	if cl := a.Content.Client(); cl == nil || cl.Config().Token == "" {
		a.Echo.Logger.Warnf("SANITY_TOKEN is not set; comment submissions will fail")
	}

	if a.Config.CacheDBPath != "" {
		store, err := NewStore(a.Config.CacheDBPath)
		if err != nil {
			return fmt.Errorf("sanitypress: init snapshot store: %w", err)
		}
		a.Snapshots = store
	}

	a.Pages = NewPageCache(PageCacheConfig{
		Loader:     a.Content,
		Revalidate: a.detail.Revalidate,
		Snapshots:  a.Snapshots,
		Logger:     a.Echo.Logger,
		Now:        a.now,
	})
	if n, err := a.Pages.Restore(); err != nil {
		a.Echo.Logger.Warnf("%v", err)
	} else if n > 0 {
		a.Echo.Logger.Infof("restored %d cached pages", n)
	}

	a.limiter = NewSubmitLimiter(a.Config.CommentsPerMinute, time.Minute)

	body := portabletext.DefaultSerializers()
	body.Types["image"] = portabletext.ImageType(a.Content.RawImageURL)
	a.site = views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Location:    loc,
		ImageURL:    a.Content.ImageURL,
		Body:        body,
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start runs Setup, pre-generates every post page in the background, and
// serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.bg.Add(1)
	a.mu.Unlock()
	go func() {
		defer a.bg.Done()
		if err := a.WarmUp(a.ctx); err != nil {
			a.Echo.Logger.Warnf("warm-up: %v", err)
		}
	}()

	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// WarmUp enumerates every post slug and generates its page.
func (a *App) WarmUp(ctx context.Context) error {
	slugs, err := a.Content.ListSlugs(ctx)
	if err != nil {
		return fmt.Errorf("enumerate paths: %w", err)
	}
	start := time.Now()
	err = a.Pages.Prewarm(ctx, slugs)
	a.Echo.Logger.Infof("pre-generated %d of %d post pages in %s", a.Pages.Len(), len(slugs), time.Since(start).Round(time.Millisecond))
	return err
}

// Paths returns the route of every post page.
func (a *App) Paths(ctx context.Context) ([]string, error) {
	slugs, err := a.Content.ListSlugs(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(slugs))
	for i, s := range slugs {
		paths[i] = content.PostPath(s)
	}
	return paths, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// The stylesheet ships inside the binary; anything else under /public
	// comes from the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/style.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", handleHealth)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/post/:slug", a.handlePost)
	e.POST("/post/:slug/comment", a.handleCommentForm)

	e.POST("/api/createComment", a.handleCreateComment)
}

// Shutdown stops the HTTP server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close cancels background work and closes the snapshot store. It waits for
// a concurrent Setup to finish and is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.cancel()
	a.mu.Unlock()

	a.bg.Wait()
	if a.Pages != nil {
		a.Pages.Close()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Snapshots != nil {
		return a.Snapshots.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

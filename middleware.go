package sanitypress

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName      = "comment_session"
	commentFlashKey  = "comment_submitted"
	commentFlashPath = "/post/"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	// Cards link to exactly /post/{slug}, so trailing slashes are redirected
	// away before routing.
	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cache := c.Response().Header().Get("X-Cache")
			if cache != "" {
				c.Logger().Infof("%s %s -> %d (%s, %s)", v.Method, v.URI, v.Status, v.Latency, cache)
				return nil
			}
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; form-action 'self'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:  middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup: "header:X-CSRF-Token,form:_csrf",
		CookieName:  "_csrf",
		CookiePath:  "/",
		CookieSameSite: func() http.SameSite {
			return http.SameSiteLaxMode
		}(),
		CookieSecure: a.Config.CookieSecure,
		Skipper: skipCSRF,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(cacheControlMiddleware)
}

// cachePolicy returns the Cache-Control value for a request path.
func cachePolicy(path string) string {
	switch {
	case strings.HasPrefix(path, "/public/"):
		return "public, max-age=31536000, immutable"
	case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/post/"):
		// Post pages carry a CSRF token and the comment flash.
		return "private, no-cache"
	case strings.HasPrefix(path, "/api/") || path == "/healthz":
		return "no-store"
	default:
		return "no-cache"
	}
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", cachePolicy(c.Request().URL.Path))
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     commentFlashPath,
		HttpOnly: true,
		MaxAge:   60 * 60,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// skipCSRF exempts the JSON comment API.
func skipCSRF(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// setCommentFlash marks slug's next page view as the thank-you state.
func setCommentFlash(c echo.Context, slug string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.AddFlash(true, commentFlashKey+":"+slug)
	return sess.Save(c.Request(), c.Response())
}

// takeCommentFlash reports whether a comment on slug was just accepted, and
// consumes that slug's flash only.
func (a *App) takeCommentFlash(c echo.Context, slug string) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	if len(sess.Flashes(commentFlashKey+":"+slug)) == 0 {
		return false
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("comment flash: %v", err)
	}
	return true
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

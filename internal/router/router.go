package router

import (
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/handler"
	"github.com/quillcms/internal/locale"
	"github.com/quillcms/internal/logger"
	"github.com/quillcms/web"
)

// SessionCookieName is the cookie holding the signed session.
const SessionCookieName = "quill_session"

// ErrRouteConflict is returned when a built-in route collides with one a
// plugin registered first.
var ErrRouteConflict = errors.New("route conflict")

// New builds the gin engine with middleware and templates. Routes are added
// later: plugins first, then Register.
func New(cfg *config.Config, log zerolog.Logger, catalog *locale.Catalog) (*gin.Engine, error) {
	r := gin.New()
	r.Use(logger.Requests(log), gin.Recovery())
	r.Use(canonicalHost(cfg.UseWWW))

	store := cookie.NewStore([]byte(cfg.SecretKey))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(SessionCookieName, store))

	tmpl, err := template.New("").Funcs(FuncMap(catalog)).ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	return r, nil
}

// FuncMap returns the helpers available to every template.
func FuncMap(catalog *locale.Catalog) template.FuncMap {
	return template.FuncMap{
		"t":        catalog.T,
		"url_link": url.PathEscape,
	}
}

// Register mounts the blog, SEO, admin and language routes of api on the
// engine router. A collision with a plugin route is returned as an error.
func Register(api *handler.API) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrRouteConflict, rec)
		}
	}()

	e := api.Engine()
	cfg := e.Config()
	r := e.Router()

	admin := r.Group("/admin")
	{
		admin.GET("/", api.ShowAdmin)
		admin.GET("/module/:name", api.ShowModule)
		admin.GET("/logout", api.Logout)
	}

	r.GET("/lang/:lang", api.SwitchLanguage)

	seo := r.Group(cfg.SEOPrefix)
	{
		seo.GET("/robots.txt", api.ShowRobots)
		seo.GET("/sitemap.xml", api.ShowSitemap)
	}

	blog := r.Group(cfg.BlogPrefix)
	{
		blog.GET("/", api.ShowBlog)
		blog.GET("/feed", api.ShowFeed)
		blog.GET("/page/:slug", api.ShowPage)
		blog.GET("/tag/:tag", api.ShowTag)
		blog.GET("/:slug", api.ShowPost)
		blog.POST("/:slug", api.AddComment)
	}

	r.NoRoute(api.NotFound)
	return nil
}

// canonicalHost redirects between the www and bare host. Local hosts and IP
// addresses are served as they are.
func canonicalHost(useWWW bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		hostname := host
		if h, _, err := net.SplitHostPort(host); err == nil {
			hostname = h
		}
		if !strings.Contains(hostname, ".") || net.ParseIP(hostname) != nil {
			c.Next()
			return
		}

		hasWWW := strings.HasPrefix(hostname, "www.")
		var target string
		switch {
		case useWWW && !hasWWW:
			target = "www." + host
		case !useWWW && hasWWW:
			target = strings.TrimPrefix(host, "www.")
		default:
			c.Next()
			return
		}

		scheme := "http"
		if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		c.Redirect(http.StatusMovedPermanently, scheme+"://"+target+c.Request.URL.RequestURI())
		c.Abort()
	}
}

package handler

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/logger"
	"github.com/quillcms/internal/models"
)

// API bundles the engine shared by the HTTP handlers.
type API struct {
	engine *engine.Engine
}

const siteContextKey = "__site_context"

// NewAPI constructs a handler set serving e.
func NewAPI(e *engine.Engine) *API {
	return &API{engine: e}
}

// Engine exposes the engine the handlers serve.
func (a *API) Engine() *engine.Engine {
	return a.engine
}

// BlogBase is the blog prefix with a trailing slash, used to build post links.
func (a *API) BlogBase() string {
	return withTrailingSlash(a.engine.Config().BlogPrefix)
}

func (a *API) log(c *gin.Context) *zerolog.Logger {
	return logger.FromContext(c, a.engine.Logger())
}

// siteContext collects the values every page template receives. Repository
// failures are recorded on the context and the page renders with defaults.
func (a *API) siteContext(c *gin.Context) gin.H {
	if cached, exists := c.Get(siteContextKey); exists {
		if view, ok := cached.(gin.H); ok {
			return view
		}
	}

	cfg := a.engine.Config()
	repo := a.engine.Repository()
	lang := a.engine.GetLocale(c)

	description, err := repo.GetAppDescription(lang)
	if err != nil {
		c.Error(err)
	}
	if strings.TrimSpace(description) == "" {
		description = cfg.AppName
	}

	menu, err := repo.GetMenuItems(lang)
	if err != nil {
		c.Error(err)
	}
	logoURL, err := repo.GetLogoURL()
	if err != nil {
		c.Error(err)
	}
	faviconURL, err := repo.GetFaviconURL()
	if err != nil {
		c.Error(err)
	}
	font, err := repo.GetFont()
	if err != nil {
		c.Error(err)
	}
	primary, err := repo.GetPrimaryColor()
	if err != nil {
		c.Error(err)
		primary = models.DefaultPrimaryColor
	}
	secondary, err := repo.GetSecondaryColor()
	if err != nil {
		c.Error(err)
		secondary = models.DefaultSecondaryColor
	}

	current := cfg.Languages[lang]
	view := gin.H{
		"app_name":             cfg.AppName,
		"app_description":      description,
		"languages":            cfg.Languages,
		"current_language":     lang,
		"current_flag":         current.Flag,
		"current_lang_country": current.Country,
		"menu_items":           menu,
		"logo_url":             logoURL,
		"favicon_url":          faviconURL,
		"font":                 template.CSS(font),
		"primary_color":        template.CSS(primary.String()),
		"secondary_color":      template.CSS(secondary.String()),
		"dynamic_head":         template.HTML(a.engine.DynamicHead()),
		"dynamic_body":         template.HTML(a.engine.DynamicBody()),
		"blog_prefix":          a.BlogBase(),
	}

	c.Set(siteContextKey, view)
	return view
}

func (a *API) renderHTML(c *gin.Context, status int, name string, data gin.H) {
	payload := gin.H{}
	for key, value := range a.siteContext(c) {
		payload[key] = value
	}
	for key, value := range data {
		payload[key] = value
	}
	c.HTML(status, name, payload)
}

// NotFound renders the 404 page.
func (a *API) NotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "404.html", gin.H{"title": "404"})
}

// sessionUser returns the logged in admin user, if any.
func sessionUser(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	user, _ := sessions.Default(c).Get(engine.SessionUserKey).(string)
	return user
}

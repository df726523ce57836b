package handler

import (
	"encoding/xml"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// ShowRobots serves robots.txt pointing crawlers at the sitemap.
func (a *API) ShowRobots(c *gin.Context) {
	sitemap := hostBase(c) + JoinPath(a.engine.Config().SEOPrefix, "sitemap.xml")
	c.String(http.StatusOK, "User-agent: *\nAllow: /\n\nSitemap: %s\n", sitemap)
}

// ShowSitemap lists every static GET route plus one entry per post of the
// request language.
func (a *API) ShowSitemap(c *gin.Context) {
	base := hostBase(c)
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	seen := make(map[string]bool)
	for _, path := range a.staticRoutes() {
		loc := base + path
		if seen[loc] {
			continue
		}
		seen[loc] = true
		set.URLs = append(set.URLs, sitemapURL{Loc: loc})
	}

	lang := a.engine.GetLocale(c)
	posts, err := a.engine.Repository().GetAllPosts(lang)
	if err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "sitemap unavailable")
		return
	}
	for _, post := range posts {
		loc := a.postURL(c, post.Slug)
		if seen[loc] {
			continue
		}
		seen[loc] = true
		lastmod, _, _ := strings.Cut(post.Date, "T")
		set.URLs = append(set.URLs, sitemapURL{Loc: loc, LastMod: lastmod})
	}

	c.XML(http.StatusOK, set)
}

// staticRoutes returns the GET routes without path parameters, sorted.
func (a *API) staticRoutes() []string {
	var paths []string
	for _, route := range a.engine.Router().Routes() {
		if route.Method != http.MethodGet || strings.ContainsAny(route.Path, ":*") {
			continue
		}
		paths = append(paths, route.Path)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

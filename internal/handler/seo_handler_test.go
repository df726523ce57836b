package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/internal/config"
)

func TestShowRobots(t *testing.T) {
	r, _ := setupSite(t, nil)

	rr := get(r, "/robots.txt")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"), rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Sitemap: http://example.com/sitemap.xml")
}

func TestShowSitemap(t *testing.T) {
	r, _ := setupSite(t, nil)

	rr := get(r, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	for _, want := range []string{
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`,
		"<loc>http://example.com/robots.txt</loc>",
		"<loc>http://example.com/admin/</loc>",
		"<url><loc>http://example.com/first-post</loc><lastmod>2023-01-01</lastmod></url>",
		"<loc>http://example.com/second-post</loc>",
	} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, ":slug")
	assert.NotContains(t, body, "pierwszy-wpis")
}

func TestShowSitemapIncludesPluginRoutes(t *testing.T) {
	r, e := setupSite(t, func(cfg *config.Config) { cfg.SEOPrefix = "/seo" })
	e.Router().GET("/old-home", func(c *gin.Context) {})

	rr := get(r, "/seo/sitemap.xml")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<loc>http://example.com/old-home</loc>")
}

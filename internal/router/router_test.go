package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/handler"
	"github.com/quillcms/internal/locale"
	"github.com/quillcms/internal/logger"
)

func testConfig(useWWW bool) *config.Config {
	cfg := config.Defaults()
	cfg.AppName = "Quill"
	cfg.SecretKey = "test-secret"
	cfg.UseWWW = useWWW
	return &cfg
}

func testEngine(t *testing.T, cfg *config.Config) *engine.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	catalog := locale.NewCatalog(locale.DefaultLanguage)
	r, err := New(cfg, logger.Nop(), catalog)
	require.NoError(t, err)
	repo, err := db.NewJSON(map[string]any{"site_content": map[string]any{}})
	require.NoError(t, err)
	e, err := engine.New(cfg, repo, engine.WithRouter(r), engine.WithCatalog(catalog))
	require.NoError(t, err)
	return e
}

func TestCanonicalHostRedirects(t *testing.T) {
	tests := []struct {
		name     string
		useWWW   bool
		host     string
		expected string
	}{
		{name: "add www", useWWW: true, host: "example.com", expected: "http://www.example.com/feed?x=1"},
		{name: "strip www", useWWW: false, host: "www.example.com", expected: "http://example.com/feed?x=1"},
		{name: "keeps port", useWWW: true, host: "example.com:8080", expected: "http://www.example.com:8080/feed?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(t, testConfig(tt.useWWW))
			require.NoError(t, Register(handler.NewAPI(e)))

			req := httptest.NewRequest(http.MethodGet, "/feed?x=1", nil)
			req.Host = tt.host
			rr := httptest.NewRecorder()
			e.Router().ServeHTTP(rr, req)

			assert.Equal(t, http.StatusMovedPermanently, rr.Code)
			assert.Equal(t, tt.expected, rr.Header().Get("Location"))
		})
	}
}

func TestCanonicalHostServesLocalHosts(t *testing.T) {
	for _, host := range []string{"localhost:8080", "127.0.0.1:8080", "www.example.com"} {
		e := testEngine(t, testConfig(true))
		require.NoError(t, Register(handler.NewAPI(e)))

		req := httptest.NewRequest(http.MethodGet, "/robots.txt", nil)
		req.Host = host
		rr := httptest.NewRecorder()
		e.Router().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, host)
	}
}

func TestRegisterReportsRouteConflict(t *testing.T) {
	e := testEngine(t, testConfig(false))
	e.Router().GET("/feed", func(c *gin.Context) {})

	assert.ErrorIs(t, Register(handler.NewAPI(e)), ErrRouteConflict)
}

func TestRegisterKeepsPluginRoutes(t *testing.T) {
	e := testEngine(t, testConfig(false))
	e.Router().GET("/old", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/new")
	})
	require.NoError(t, Register(handler.NewAPI(e)))

	rr := httptest.NewRecorder()
	e.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/old", nil))
	assert.Equal(t, http.StatusMovedPermanently, rr.Code)
	assert.Equal(t, "/new", rr.Header().Get("Location"))
}

func TestFuncMapTranslates(t *testing.T) {
	catalog := locale.NewCatalog(locale.DefaultLanguage)
	funcs := FuncMap(catalog)

	translate, ok := funcs["t"].(func(string, string, ...any) string)
	require.True(t, ok, "t helper")
	assert.Equal(t, "Wpisy z tagiem go", translate("pl", "blog.tagged", "go"))

	link, ok := funcs["url_link"].(func(string) string)
	require.True(t, ok, "url_link helper")
	assert.Contains(t, link("a b/c"), "%2F")
}

package redirections

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/engine"
	qlog "github.com/quillcms/internal/logger"
	"github.com/quillcms/internal/plugin"
)

func newEngine(t *testing.T, repo db.Repository) *engine.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Defaults()
	e, err := engine.New(&cfg, repo)
	require.NoError(t, err)
	return e
}

func get(e *engine.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRedirectionsFromConfigAndStore(t *testing.T) {
	repo, err := db.NewJSON(map[string]any{
		"site_content": map[string]any{},
		"redirections": map[string]any{"/stored": "/target", "/both": "/from-store"},
		"plugins": []any{
			map[string]any{"name": Name, "config": map[string]any{"/old": "https://example.com/new", "/both": "/from-config"}},
		},
	})
	require.NoError(t, err)
	e := newEngine(t, repo)

	require.NoError(t, plugin.NewLoader(plugin.Builtin(), qlog.Nop()).Plugify(e))

	cases := map[string]string{
		"/old":    "https://example.com/new",
		"/stored": "/target",
		"/both":   "/from-config",
	}
	for path, want := range cases {
		w := get(e, path)
		assert.Equal(t, http.StatusMovedPermanently, w.Code, path)
		assert.Equal(t, want, w.Header().Get("Location"), path)
	}

	assert.Equal(t, http.StatusNotFound, get(e, "/unknown").Code)
}

func TestRedirectionsRequireConfig(t *testing.T) {
	repo, err := db.NewJSON(map[string]any{"site_content": map[string]any{}})
	require.NoError(t, err)

	_, err = Process(newEngine(t, repo), nil)
	assert.Error(t, err)

	_, err = Process(newEngine(t, repo), map[string]any{"no-slash": "/x"})
	assert.Error(t, err)

	_, err = Process(newEngine(t, repo), map[string]any{"/x": 5})
	assert.Error(t, err)
}

func TestRedirectionsFromSQL(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	repo, err := db.NewSQL(gdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, gdb.AutoMigrate(&Record{}))
	require.NoError(t, gdb.Create(&Record{Source: "/legacy", Destination: "/modern"}).Error)

	e := newEngine(t, repo)
	_, err = Process(e, map[string]any{})
	require.NoError(t, err)

	w := get(e, "/legacy")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/modern", w.Header().Get("Location"))
}

func TestDuplicateRouteIsAnError(t *testing.T) {
	repo, err := db.NewJSON(map[string]any{"site_content": map[string]any{}})
	require.NoError(t, err)
	e := newEngine(t, repo)
	e.Router().GET("/taken", func(c *gin.Context) {})

	_, err = Process(e, map[string]any{"/taken": "/elsewhere"})
	assert.Error(t, err)
}

package tagmanager

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/logger"
	"github.com/quillcms/internal/plugin"
)

func newEngine(t *testing.T, cfg map[string]any) *engine.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo, err := db.NewJSON(map[string]any{
		"site_content": map[string]any{},
		"plugins":      []any{map[string]any{"name": Name, "config": cfg}},
	})
	require.NoError(t, err)
	siteCfg := config.Defaults()
	e, err := engine.New(&siteCfg, repo)
	require.NoError(t, err)
	return e
}

func TestInjectsContainerSnippets(t *testing.T) {
	e := newEngine(t, map[string]any{"id": "GTM-ABC123"})

	require.NoError(t, plugin.NewLoader(plugin.Builtin(), logger.Nop()).Plugify(e))

	assert.Contains(t, e.DynamicHead(), "googletagmanager.com/gtm.js?id=GTM-ABC123")
	assert.Contains(t, e.DynamicHead(), "'dataLayer'")
	assert.Contains(t, e.DynamicBody(), `ns.html?id=GTM-ABC123"`)
}

func TestEnvironmentIsAppended(t *testing.T) {
	p, err := New(Config{ID: "GTM-1", DataLayer: "dataLayer", Environment: "gtm_auth=x&gtm_preview=env-2"})
	require.NoError(t, err)

	_, err = New(Config{ID: "GTM-1", DataLayer: "dataLayer", Environment: "x'><script>"})
	assert.Error(t, err)

	assert.Contains(t, p.(*Plugin).Body(), "id=GTM-1&amp;gtm_auth=x&amp;gtm_preview=env-2")
	assert.Contains(t, p.(*Plugin).Head(), `gtm_auth=x&gtm_preview=env-2`)
}

func TestRejectsInvalidConfig(t *testing.T) {
	for _, cfg := range []map[string]any{nil, {"id": ""}, {"id": "UA-123"}, {"id": "GTM-1", "data_layer": "bad layer"}, {"id": "GTM-<script>"}} {
		e := newEngine(t, cfg)
		err := plugin.NewLoader(plugin.Builtin(), logger.Nop()).Plugify(e)

		var cfgErr *plugin.ConfigError
		assert.ErrorAs(t, err, &cfgErr, "config %v", cfg)
		assert.Empty(t, e.DynamicHead())
	}
}

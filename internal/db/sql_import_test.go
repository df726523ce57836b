package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportTreeTwiceKeepsContent(t *testing.T) {
	repo := newTestSQL(t)
	require.NoError(t, repo.AddComment("Eve", "Live comment", "first-post"))

	require.NoError(t, ImportTree(repo.DB, fixtureTree()))

	post, err := repo.GetPost("first-post")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"go", "web"}, post.Tags)
	require.Len(t, post.Comments, 2)
	assert.Equal(t, "Bob", post.Comments[0].Author)
	assert.Equal(t, "Eve", post.Comments[1].Author)

	_, err = repo.GetPage("about")
	require.NoError(t, err)

	var entries, menus, plugins int64
	require.NoError(t, repo.DB.Model(&EntryRecord{}).Count(&entries).Error)
	require.NoError(t, repo.DB.Model(&MenuItemRecord{}).Count(&menus).Error)
	require.NoError(t, repo.DB.Model(&PluginRecord{}).Count(&plugins).Error)
	assert.EqualValues(t, 4, entries)
	assert.EqualValues(t, 3, menus)
	assert.EqualValues(t, 2, plugins)

	menu, err := repo.GetMenuItems("en")
	require.NoError(t, err)
	require.Len(t, menu, 2)
	assert.Equal(t, "Home", menu[0].Name)
}

func TestImportTreeRefreshesChangedEntries(t *testing.T) {
	repo := newTestSQL(t)

	tree := fixtureTree()
	content := tree["site_content"].(map[string]any)
	first := content["posts"].([]any)[0].(map[string]any)
	first["title"] = "First post, revised"
	first["tags"] = []any{"go"}
	content["menu_items"] = map[string]any{"en": []any{map[string]any{"name": "Blog", "url": "/"}}}
	delete(tree, "plugins")

	require.NoError(t, ImportTree(repo.DB, tree))

	post, err := repo.GetPost("first-post")
	require.NoError(t, err)
	assert.Equal(t, "First post, revised", post.Title)
	assert.Equal(t, []string{"go"}, post.Tags)

	en, err := repo.GetMenuItems("en")
	require.NoError(t, err)
	require.Len(t, en, 1)
	assert.Equal(t, "Blog", en[0].Name)

	pl, err := repo.GetMenuItems("pl")
	require.NoError(t, err)
	assert.Len(t, pl, 1)

	decls, err := repo.GetPluginsData()
	require.NoError(t, err)
	assert.Len(t, decls, 2)
}

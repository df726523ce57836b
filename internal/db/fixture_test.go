package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixtureTree returns a fresh document tree with three posts spanning two
// languages and two tags.
func fixtureTree() map[string]any {
	return map[string]any{
		"site_content": map[string]any{
			"app_description": map[string]any{"en": "A blog about things"},
			"logo_url":        "/static/logo.png",
			"font":            "Inter",
			"primary_color":   map[string]any{"r": float64(10), "g": float64(20), "b": float64(30)},
			"menu_items": map[string]any{
				"en": []any{
					map[string]any{"name": "Home", "url": "/"},
					map[string]any{"name": "About", "url": "/page/about"},
				},
				"pl": []any{map[string]any{"name": "Start", "url": "/"}},
			},
			"posts": []any{
				map[string]any{
					"author":            "Ann",
					"slug":              "first-post",
					"title":             "First post",
					"contentInMarkdown": "# First",
					"excerpt":           "first",
					"tags":              []any{"go", "web"},
					"language":          "en",
					"coverImage":        map[string]any{"url": "/img/1.png", "alternateText": "one"},
					"date":              "2023-01-01T00:00:00",
					"comments": []any{
						map[string]any{"author": "Bob", "comment": "Nice", "date": "2023-01-02T10:00:00"},
					},
				},
				map[string]any{
					"author":   "Ann",
					"slug":     "second-post",
					"title":    "Second post",
					"tags":     []any{"web"},
					"language": "en",
					"date":     "2023-02-01T00:00:00",
				},
				map[string]any{
					"author":   "Ola",
					"slug":     "pierwszy-wpis",
					"title":    "Pierwszy wpis",
					"tags":     []any{"go"},
					"language": "pl",
					"date":     "2023-03-01T00:00:00",
				},
			},
			"pages": []any{
				map[string]any{"slug": "about", "title": "About", "language": "en", "contentInMarkdown": "About us"},
			},
		},
		"plugins": []any{
			map[string]any{"name": "redirections", "config": map[string]any{"/old": "/new"}},
			map[string]any{"name": "tagmanager", "config": map[string]any{"id": "GTM-1"}},
		},
	}
}

func pinTime(t *testing.T, at time.Time) {
	t.Helper()
	previous := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = previous })
}

func writeFixtureFile(t *testing.T) string {
	t.Helper()
	encoded, err := json.Marshal(fixtureTree())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "content.json")
	require.NoError(t, os.WriteFile(path, encoded, 0o644))
	return path
}

func newTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func newTestSQL(t *testing.T) *SQL {
	t.Helper()
	gdb := newTestGorm(t)
	repo, err := NewSQL(gdb)
	require.NoError(t, err)
	require.NoError(t, ImportTree(gdb, fixtureTree()))
	return repo
}

// localBackends builds every backend that can be seeded with the fixture
// without a network round trip.
func localBackends(t *testing.T) map[string]Repository {
	t.Helper()

	jsonRepo, err := NewJSON(fixtureTree())
	require.NoError(t, err)

	fileRepo, err := NewJSONFile(writeFixtureFile(t))
	require.NoError(t, err)

	return map[string]Repository{
		"json":      jsonRepo,
		"json_file": fileRepo,
		"sql":       newTestSQL(t),
	}
}

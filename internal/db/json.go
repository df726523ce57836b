package db

import (
	"errors"
	"fmt"
	"sync"

	"github.com/quillcms/internal/models"
)

// JSON serves content from an in-memory document tree. Site content lives
// under "site_content", plugin declarations under "plugins".
type JSON struct {
	// Data is the backing tree. Extensions may read it; writes go through AddComment.
	Data map[string]any

	mu      sync.RWMutex
	ext     extensionSet
	self    Repository
	persist func() error
}

// NewJSON wraps data. The tree must contain a "site_content" object.
func NewJSON(data map[string]any) (*JSON, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: json database needs data", ErrInvalidArgument)
	}
	if _, ok := data["site_content"].(map[string]any); !ok {
		return nil, fmt.Errorf("%w: json database needs a site_content object", ErrInvalidArgument)
	}
	j := &JSON{Data: data}
	j.self = j
	return j, nil
}

func (j *JSON) Name() string { return "json_db" }

func (j *JSON) siteContent() map[string]any {
	content, _ := j.Data["site_content"].(map[string]any)
	return content
}

func (j *JSON) records(key string) []any {
	list, _ := j.siteContent()[key].([]any)
	return list
}

func (j *JSON) decodeAll(key string) ([]models.Post, error) {
	raw := j.records(key)
	posts := make([]models.Post, 0, len(raw))
	for i, record := range raw {
		post, err := models.DecodePost(record)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// findRecord returns the single record under key whose slug matches.
func (j *JSON) findRecord(key, slug string) (map[string]any, error) {
	var found map[string]any
	for _, record := range j.records(key) {
		m, ok := record.(map[string]any)
		if !ok || m["slug"] != slug {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateSlug, slug, key)
		}
		found = m
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, singular(key), slug)
	}
	return found, nil
}

func (j *JSON) findEntry(key, slug string) (models.Post, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	record, err := j.findRecord(key, slug)
	if err != nil {
		return models.Post{}, err
	}
	return models.DecodePost(record)
}

func (j *JSON) GetAllPosts(lang string) ([]models.Post, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	posts, err := j.decodeAll("posts")
	if err != nil {
		return nil, err
	}
	return filterByLanguage(posts, lang), nil
}

func (j *JSON) GetPost(slug string) (models.Post, error) {
	return j.findEntry("posts", slug)
}

func (j *JSON) GetPage(slug string) (models.Page, error) {
	return j.findEntry("pages", slug)
}

func (j *JSON) GetPostsByTag(tag, lang string) ([]models.Post, error) {
	posts, err := j.GetAllPosts(lang)
	if err != nil {
		return nil, err
	}
	return filterByTag(posts, tag), nil
}

func (j *JSON) AddComment(author, comment, postSlug string) error {
	if err := validateComment(author, comment, postSlug); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	record, err := j.findRecord("posts", postSlug)
	if err != nil {
		return err
	}

	previous, hadComments := record["comments"]
	existing, _ := previous.([]any)
	updated := make([]any, len(existing), len(existing)+1)
	copy(updated, existing)
	record["comments"] = append(updated, map[string]any{
		"author":  author,
		"comment": comment,
		"date":    commentNow(),
	})

	if j.persist == nil {
		return nil
	}
	if err := j.persist(); err != nil {
		if hadComments {
			record["comments"] = previous
		} else {
			delete(record, "comments")
		}
		return err
	}
	return nil
}

func (j *JSON) GetMenuItems(lang string) ([]models.MenuItem, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	byLang, _ := j.siteContent()["menu_items"].(map[string]any)
	raw, _ := byLang[lang].([]any)
	items := make([]models.MenuItem, 0, len(raw))
	for i, record := range raw {
		item, err := models.DecodeMenuItem(record)
		if err != nil {
			return nil, fmt.Errorf("menu_items.%s[%d]: %w", lang, i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (j *JSON) GetAppDescription(lang string) (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	descriptions, _ := j.siteContent()["app_description"].(map[string]any)
	description, _ := descriptions[lang].(string)
	return description, nil
}

func (j *JSON) stringSetting(key string) (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	switch v := j.siteContent()[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %T", models.ErrValidation, key, v)
	}
}

func (j *JSON) GetLogoURL() (string, error)    { return j.stringSetting("logo_url") }
func (j *JSON) GetFaviconURL() (string, error) { return j.stringSetting("favicon_url") }
func (j *JSON) GetFont() (string, error)       { return j.stringSetting("font") }

func (j *JSON) colorSetting(key string, fallback models.Color) (models.Color, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	raw, ok := j.siteContent()[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	color, err := models.ParseColor(raw)
	if err != nil {
		return models.Color{}, fmt.Errorf("%s: %w", key, err)
	}
	return color, nil
}

func (j *JSON) GetPrimaryColor() (models.Color, error) {
	return j.colorSetting("primary_color", models.DefaultPrimaryColor)
}

func (j *JSON) GetSecondaryColor() (models.Color, error) {
	return j.colorSetting("secondary_color", models.DefaultSecondaryColor)
}

func (j *JSON) GetPluginsData() ([]models.PluginDeclaration, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	raw, _ := j.Data["plugins"].([]any)
	decls := make([]models.PluginDeclaration, 0, len(raw))
	for i, record := range raw {
		decl, err := models.DecodePluginDeclaration(record)
		if err != nil {
			return nil, fmt.Errorf("plugins[%d]: %w", i, err)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (j *JSON) Extend(name string, fn any) error {
	return j.ext.extend(name, fn)
}

func (j *JSON) Invoke(name string, args ...any) (any, error) {
	return j.ext.invoke(j.self, name, args)
}

func singular(key string) string {
	switch key {
	case "posts":
		return "post"
	case "pages":
		return "page"
	default:
		return key
	}
}

// IsNotFound reports whether err means the requested content does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

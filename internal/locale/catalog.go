package locale

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Catalog holds interface messages per language.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	fallback string
}

// NewCatalog returns a catalog preloaded with the built-in messages.
func NewCatalog(fallback string) *Catalog {
	c := &Catalog{messages: make(map[string]map[string]string), fallback: fallback}
	for lang, msgs := range DefaultMessages() {
		c.LoadMessages(lang, msgs)
	}
	return c
}

// LoadDir loads every <lang>.json file of dir. Later files override keys.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read translations dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var msgs map[string]string
		if err := json.Unmarshal(data, &msgs); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		c.LoadMessages(strings.TrimSuffix(entry.Name(), ".json"), msgs)
	}

	return nil
}

// LoadMessages merges messages into lang.
func (c *Catalog) LoadMessages(lang string, messages map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.messages[lang]
	if !ok {
		existing = make(map[string]string, len(messages))
		c.messages[lang] = existing
	}
	for k, v := range messages {
		existing[k] = v
	}
}

// T translates key for lang, falling back to the fallback language and
// finally to the key itself.
func (c *Catalog) T(lang, key string, args ...any) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msg, ok := c.messages[lang][key]
	if !ok && lang != c.fallback {
		msg, ok = c.messages[c.fallback][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// DefaultMessages returns the built-in English and Polish messages.
func DefaultMessages() map[string]map[string]string {
	return map[string]map[string]string{
		"en": {
			"blog.read_more":         "Read more",
			"blog.comments":          "Comments",
			"blog.add_comment":       "Add comment",
			"blog.author_name":       "Your name",
			"blog.comment":           "Comment",
			"blog.send":              "Send",
			"blog.comment_sent":      "Thank you, your comment was added.",
			"blog.no_posts":          "No posts yet.",
			"blog.tagged":            "Posts tagged %s",
			"blog.feed":              "Feed",
			"blog.comment_invalid":   "Please fill in your name and the comment.",
			"page.not_found":         "Page not found",
			"page.error":             "Something went wrong.",
			"admin.title":            "Admin panel",
			"admin.login":            "Log in",
			"admin.logout":           "Log out",
			"admin.plugins":          "Plugins",
			"admin.no_login_methods": "No login methods are configured.",
			"admin.login_failed":     "Wrong username or password.",
			"lang.switch":            "Language",
		},
		"pl": {
			"blog.read_more":         "Czytaj dalej",
			"blog.comments":          "Komentarze",
			"blog.add_comment":       "Dodaj komentarz",
			"blog.author_name":       "Twoje imię",
			"blog.comment":           "Komentarz",
			"blog.send":              "Wyślij",
			"blog.comment_sent":      "Dziękujemy, komentarz został dodany.",
			"blog.no_posts":          "Brak wpisów.",
			"blog.tagged":            "Wpisy z tagiem %s",
			"blog.feed":              "Kanał",
			"blog.comment_invalid":   "Podaj imię i treść komentarza.",
			"page.not_found":         "Nie znaleziono strony",
			"page.error":             "Coś poszło nie tak.",
			"admin.title":            "Panel administracyjny",
			"admin.login":            "Zaloguj",
			"admin.logout":           "Wyloguj",
			"admin.plugins":          "Wtyczki",
			"admin.no_login_methods": "Brak skonfigurowanych metod logowania.",
			"admin.login_failed":     "Nieprawidłowa nazwa użytkownika lub hasło.",
			"lang.switch":            "Język",
		},
	}
}

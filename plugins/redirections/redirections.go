// Package redirections registers permanent redirects. It uses the legacy
// plugin entrypoint and receives its config as a plain source to
// destination mapping.
package redirections

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/plugin"
)

const (
	Name = "redirections"
	// ExtensionName is bound on the repository; it returns the stored redirects.
	ExtensionName = "get_redirections"
)

func init() {
	plugin.Register(plugin.Legacy(Name, Process))
}

// Redirection is one permanent redirect.
type Redirection struct {
	Source      string
	Destination string
}

// Process merges redirects stored in the repository with cfg (cfg wins) and
// registers a 301 route for each one.
func Process(e *engine.Engine, cfg map[string]any) (*engine.Engine, error) {
	if cfg == nil {
		return nil, errors.New("redirections config is required")
	}
	fromConfig, err := parse(cfg)
	if err != nil {
		return nil, err
	}

	repo := e.Repository()
	if err := repo.Extend(ExtensionName, getRedirections); err != nil && !errors.Is(err, db.ErrExtension) {
		return nil, err
	}
	stored, err := db.Call[map[string]string](repo, ExtensionName)
	if err != nil {
		return nil, fmt.Errorf("load stored redirections: %w", err)
	}

	merged := make(map[string]string, len(stored)+len(fromConfig))
	for source, destination := range stored {
		merged[source] = destination
	}
	for source, destination := range fromConfig {
		merged[source] = destination
	}

	if err := setupRoutes(e.Router(), sorted(merged)); err != nil {
		return nil, err
	}
	return e, nil
}

func parse(cfg map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(cfg))
	for source, raw := range cfg {
		destination, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("redirection %q: destination must be a string, got %T", source, raw)
		}
		if !strings.HasPrefix(source, "/") {
			return nil, fmt.Errorf("redirection %q: source must start with /", source)
		}
		if destination == "" {
			return nil, fmt.Errorf("redirection %q: empty destination", source)
		}
		out[source] = destination
	}
	return out, nil
}

func sorted(m map[string]string) []Redirection {
	out := make([]Redirection, 0, len(m))
	for source, destination := range m {
		out = append(out, Redirection{Source: source, Destination: destination})
	}
	slices.SortFunc(out, func(a, b Redirection) int { return strings.Compare(a.Source, b.Source) })
	return out
}

func setupRoutes(r gin.IRoutes, redirections []Redirection) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("register redirection route: %v", rec)
		}
	}()
	for _, redirection := range redirections {
		destination := redirection.Destination
		r.GET(redirection.Source, func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, destination)
		})
	}
	return nil
}

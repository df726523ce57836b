package db

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateSlug    = errors.New("duplicate slug")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrExtension        = errors.New("extension rejected")
	ErrUnknownExtension = errors.New("unknown extension")
	ErrUnknownBackend   = errors.New("unknown database type")
)

// timeNow is swapped in tests to pin comment timestamps.
var timeNow = time.Now

// Repository is the closed set of content operations every backend provides.
// Request handlers, SEO artifacts and plugins depend on this interface only.
type Repository interface {
	// Name identifies the backend module, e.g. "json_db".
	Name() string

	GetAllPosts(lang string) ([]models.Post, error)
	GetPost(slug string) (models.Post, error)
	GetPage(slug string) (models.Page, error)
	GetPostsByTag(tag, lang string) ([]models.Post, error)
	AddComment(author, comment, postSlug string) error
	GetMenuItems(lang string) ([]models.MenuItem, error)
	GetAppDescription(lang string) (string, error)

	GetLogoURL() (string, error)
	GetFaviconURL() (string, error)
	GetFont() (string, error)
	GetPrimaryColor() (models.Color, error)
	GetSecondaryColor() (models.Color, error)

	GetPluginsData() ([]models.PluginDeclaration, error)

	// Extend binds fn under name on this instance only.
	Extend(name string, fn any) error
	// Invoke calls an operation previously bound with Extend.
	Invoke(name string, args ...any) (any, error)
}

var (
	_ Repository = (*JSON)(nil)
	_ Repository = (*JSONFile)(nil)
	_ Repository = (*GraphQL)(nil)
	_ Repository = (*SQL)(nil)
)

// Open builds the backend selected by cfg.Type.
func Open(cfg config.DBConfig) (Repository, error) {
	switch cfg.Type {
	case config.DBTypeJSON:
		return NewJSON(cfg.Data)
	case config.DBTypeJSONFile:
		return NewJSONFile(cfg.Path)
	case config.DBTypeGraphQL:
		return NewGraphQL(cfg.Endpoint, cfg.Token)
	case config.DBTypeSQL:
		return OpenSQL(cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Type)
	}
}

// Close releases backend resources when the backend holds any.
func Close(repo Repository) error {
	if closer, ok := repo.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func commentNow() string {
	return timeNow().Format(models.CommentTimeLayout)
}

func filterByLanguage(posts []models.Post, lang string) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Language == lang {
			out = append(out, p)
		}
	}
	return out
}

func filterByTag(posts []models.Post, tag string) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

func validateComment(author, comment, postSlug string) error {
	switch {
	case postSlug == "":
		return fmt.Errorf("%w: empty post slug", ErrInvalidArgument)
	case author == "":
		return fmt.Errorf("%w: empty comment author", ErrInvalidArgument)
	case comment == "":
		return fmt.Errorf("%w: empty comment body", ErrInvalidArgument)
	}
	return nil
}

package engine

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quillcms/internal/config"
	"github.com/quillcms/internal/db"
	"github.com/quillcms/internal/locale"
	"github.com/quillcms/internal/logger"
)

const (
	// SessionLanguageKey is the session key holding the resolved language.
	SessionLanguageKey = "language"
	// SessionUserKey is the session key set by login methods.
	SessionUserKey = "user"

	localeContextKey = "__request_language"
)

// ErrDuplicateValue is returned when a named value is provided twice.
var ErrDuplicateValue = errors.New("value already provided")

// Notifier receives messages sent with Engine.Notify.
type Notifier func(message string)

// LoginMethod is an authentication option offered on the admin login page.
type LoginMethod struct {
	Name  string
	Label string
	// Form is rendered verbatim on the login page.
	Form template.HTML
}

// Engine is the running site. Plugins extend it while it is being brought up.
type Engine struct {
	cfg      *config.Config
	repo     db.Repository
	router   *gin.Engine
	log      zerolog.Logger
	resolver *locale.Resolver
	catalog  *locale.Catalog

	mu           sync.RWMutex
	dynamicHead  strings.Builder
	dynamicBody  strings.Builder
	notifiers    []Notifier
	loginMethods []LoginMethod
	values       map[string]any
}

// Option customises a new Engine.
type Option func(*Engine)

// WithRouter serves the engine from r instead of a bare gin engine.
func WithRouter(r *gin.Engine) Option {
	return func(e *Engine) { e.router = r }
}

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithCatalog sets the message catalog used by templates.
func WithCatalog(c *locale.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// New creates an engine owning repo.
func New(cfg *config.Config, repo db.Repository, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: nil config")
	}
	if repo == nil {
		return nil, fmt.Errorf("engine: nil repository")
	}

	e := &Engine{
		cfg:      cfg,
		repo:     repo,
		log:      logger.Nop(),
		resolver: locale.NewResolver(cfg.DomainToLang, cfg.LanguageCodes()),
		values:   make(map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.router == nil {
		e.router = gin.New()
	}
	if e.catalog == nil {
		e.catalog = locale.NewCatalog(locale.DefaultLanguage)
	}
	return e, nil
}

func (e *Engine) Config() *config.Config           { return e.cfg }
func (e *Engine) Repository() db.Repository        { return e.repo }
func (e *Engine) Router() *gin.Engine              { return e.router }
func (e *Engine) Logger() zerolog.Logger           { return e.log }
func (e *Engine) Catalog() *locale.Catalog         { return e.catalog }
func (e *Engine) LocaleResolver() *locale.Resolver { return e.resolver }

// AddDynamicHead appends markup rendered inside <head> on every page.
func (e *Engine) AddDynamicHead(markup string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dynamicHead.WriteString(markup)
}

// AddDynamicBody appends markup rendered at the top of <body> on every page.
func (e *Engine) AddDynamicBody(markup string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dynamicBody.WriteString(markup)
}

func (e *Engine) DynamicHead() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dynamicHead.String()
}

func (e *Engine) DynamicBody() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dynamicBody.String()
}

func (e *Engine) AddNotifier(n Notifier) {
	if n == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifiers = append(e.notifiers, n)
}

// Notify sends message to every registered notifier in registration order.
func (e *Engine) Notify(message string) {
	e.mu.RLock()
	notifiers := append([]Notifier(nil), e.notifiers...)
	e.mu.RUnlock()

	for _, n := range notifiers {
		n(message)
	}
}

func (e *Engine) AddLoginMethod(m LoginMethod) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loginMethods = append(e.loginMethods, m)
}

func (e *Engine) LoginMethods() []LoginMethod {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]LoginMethod(nil), e.loginMethods...)
}

// Provide attaches a named value to the engine, e.g. a plugin service.
func (e *Engine) Provide(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.values[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateValue, name)
	}
	e.values[name] = value
	return nil
}

// Lookup returns a value attached with Provide.
func (e *Engine) Lookup(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok := e.values[name]
	return value, ok
}

// GetLocale resolves the language of the request and remembers it in the
// session so later requests keep it.
func (e *Engine) GetLocale(c *gin.Context) string {
	if cached, ok := c.Get(localeContextKey); ok {
		if lang, ok := cached.(string); ok {
			return lang
		}
	}

	var session sessions.Session
	if _, ok := c.Get(sessions.DefaultKey); ok {
		session = sessions.Default(c)
	}

	req := locale.Request{
		Host:           c.Request.Host,
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}
	if session != nil {
		if stored, ok := session.Get(SessionLanguageKey).(string); ok {
			req.SessionLanguage = stored
		}
	}

	lang := e.resolver.Resolve(req)
	if session != nil && req.SessionLanguage != lang {
		session.Set(SessionLanguageKey, lang)
		if err := session.Save(); err != nil {
			logger.FromContext(c, e.log).Warn().Err(err).Msg("save language in session")
		}
	}
	c.Set(localeContextKey, lang)
	return lang
}

// Translate looks key up in the catalog for the request language.
func (e *Engine) Translate(c *gin.Context, key string, args ...any) string {
	return e.catalog.T(e.GetLocale(c), key, args...)
}

// Close releases the repository.
func (e *Engine) Close() error {
	return db.Close(e.repo)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a site configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Backend types accepted in DB.TYPE.
const (
	DBTypeJSON     = "json"
	DBTypeJSONFile = "json_file"
	DBTypeGraphQL  = "graph_ql"
	DBTypeSQL      = "sql"
)

// DBConfig selects the content backend. Only the fields of the arm named by
// Type are read.
type DBConfig struct {
	Type string `yaml:"TYPE"`

	Data map[string]any `yaml:"DATA"`

	Path string `yaml:"PATH"`

	Endpoint string `yaml:"CMS_ENDPOINT"`
	Token    string `yaml:"CMS_TOKEN"`

	Driver string `yaml:"DRIVER"`
	DSN    string `yaml:"DSN"`
}

// UnmarshalYAML decodes the arm named by TYPE and rejects unknown types and
// missing required fields.
func (c *DBConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain DBConfig
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	cfg := DBConfig(raw)
	if err := cfg.Validate(); err != nil {
		return err
	}
	*c = cfg
	return nil
}

// Validate checks the fields required by the selected backend.
func (c DBConfig) Validate() error {
	switch c.Type {
	case DBTypeJSON:
		if c.Data == nil {
			return fmt.Errorf("%w: DB.DATA is required for %s", ErrInvalidConfig, c.Type)
		}
	case DBTypeJSONFile:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("%w: DB.PATH is required for %s", ErrInvalidConfig, c.Type)
		}
	case DBTypeGraphQL:
		if strings.TrimSpace(c.Endpoint) == "" {
			return fmt.Errorf("%w: DB.CMS_ENDPOINT is required for %s", ErrInvalidConfig, c.Type)
		}
	case DBTypeSQL:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("%w: DB.DSN is required for %s", ErrInvalidConfig, c.Type)
		}
		switch strings.ToLower(c.Driver) {
		case "", "sqlite", "mysql":
		default:
			return fmt.Errorf("%w: unsupported DB.DRIVER %q", ErrInvalidConfig, c.Driver)
		}
	case "":
		return fmt.Errorf("%w: DB.TYPE is required", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown DB.TYPE %q", ErrInvalidConfig, c.Type)
	}
	return nil
}

// LanguageConfig describes one site language.
type LanguageConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Flag    string `yaml:"flag"`
	Country string `yaml:"country"`
	Domain  string `yaml:"domain"`
}

// Config is the site configuration loaded from YAML.
type Config struct {
	AppName                string                    `yaml:"APP_NAME" validate:"required"`
	SecretKey              string                    `yaml:"SECRET_KEY" validate:"required"`
	DB                     DBConfig                  `yaml:"DB"`
	UseWWW                 bool                      `yaml:"USE_WWW"`
	SEOPrefix              string                    `yaml:"SEO_PREFIX"`
	BlogPrefix             string                    `yaml:"BLOG_PREFIX"`
	Languages              map[string]LanguageConfig `yaml:"LANGUAGES" validate:"dive"`
	DomainToLang           map[string]string         `yaml:"DOMAIN_TO_LANG"`
	TranslationDirectories []string                  `yaml:"TRANSLATION_DIRECTORIES"`
	Debug                  bool                      `yaml:"DEBUG"`
	Testing                bool                      `yaml:"TESTING"`
	FeatureFlags           map[string]bool           `yaml:"FEATURE_FLAGS"`
	PluginsDir             string                    `yaml:"PLUGINS_DIR"`
}

// Defaults returns a config carrying the default values of every optional key.
func Defaults() Config {
	return Config{
		UseWWW:       true,
		SEOPrefix:    "/",
		BlogPrefix:   "/",
		Languages:    map[string]LanguageConfig{},
		DomainToLang: map[string]string{},
		FeatureFlags: map[string]bool{},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes a YAML site configuration.
func Parse(raw []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.DB.Validate(); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Languages == nil {
		cfg.Languages = map[string]LanguageConfig{}
	}
	if cfg.DomainToLang == nil {
		cfg.DomainToLang = map[string]string{}
	}
	if cfg.FeatureFlags == nil {
		cfg.FeatureFlags = map[string]bool{}
	}
	return &cfg, nil
}

// LoadFile reads and parses the site configuration at path.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// LanguageCodes lists the configured language codes.
func (c *Config) LanguageCodes() []string {
	codes := make([]string, 0, len(c.Languages))
	for code := range c.Languages {
		codes = append(codes, code)
	}
	return codes
}

// FeatureEnabled reports whether a feature flag is switched on.
func (c *Config) FeatureEnabled(name string) bool {
	return c.FeatureFlags[name]
}

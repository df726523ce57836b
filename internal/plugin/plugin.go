package plugin

import (
	"errors"
	"fmt"

	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/models"
)

// CoreVersion is matched against Module.Requires.
const CoreVersion = "1.0.0"

var (
	ErrNotFound     = errors.New("plugin not found")
	ErrNoEntrypoint = errors.New("plugin has no entrypoint")
	ErrIncompatible = errors.New("plugin is incompatible with this core")
	ErrAmbiguous    = errors.New("plugin is registered more than once")
)

// Pipeline stages reported in Error.Stage.
const (
	StageDiscover      = "discover"
	StageClassify      = "classify"
	StageCompatibility = "compatibility"
	StageValidate      = "validate"
	StageInstantiate   = "instantiate"
	StageApply         = "apply"
)

// Plugin is a configured plugin instance.
type Plugin interface {
	Process(e *engine.Engine) error
}

// LegacyFunc is the deprecated entrypoint receiving the raw, unvalidated config.
// It must return the engine it was given.
type LegacyFunc func(e *engine.Engine, cfg map[string]any) (*engine.Engine, error)

// Style is the calling convention of a module.
type Style int

const (
	StyleUnknown Style = iota
	StyleStructured
	StyleLegacy
)

func (s Style) String() string {
	switch s {
	case StyleStructured:
		return "structured"
	case StyleLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// Module is an installable plugin as found by a Resolver.
type Module struct {
	Name string
	// Requires is an optional semver constraint on CoreVersion, e.g. ">= 1.0, < 2".
	Requires string
	// Legacy is used only when the module has no structured factory.
	Legacy LegacyFunc

	configure func(raw map[string]any) (any, error)
	build     func(cfg any) (Plugin, error)
}

// Structured declares a module whose config is decoded into C. Keys missing
// from the raw config keep their value from defaults, which is called once
// per declaration so maps and slices are never shared between instances. A
// nil defaults starts from the zero C. Unknown keys are ignored. C is
// validated with its `validate` tags before build runs.
func Structured[C any](name string, defaults func() C, build func(cfg C) (Plugin, error)) Module {
	return Module{
		Name: name,
		configure: func(raw map[string]any) (any, error) {
			var cfg C
			if defaults != nil {
				cfg = defaults()
			}
			if err := models.Decode(raw, &cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		},
		build: func(cfg any) (Plugin, error) {
			typed, ok := cfg.(C)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", cfg)
			}
			return build(typed)
		},
	}
}

// Legacy declares a module with only the deprecated entrypoint.
func Legacy(name string, fn LegacyFunc) Module {
	return Module{Name: name, Legacy: fn}
}

// Style classifies the module. A structured factory wins over a legacy function.
func (m Module) Style() (Style, error) {
	switch {
	case m.configure != nil && m.build != nil:
		return StyleStructured, nil
	case m.Legacy != nil:
		return StyleLegacy, nil
	default:
		return StyleUnknown, fmt.Errorf("%w: %q exposes neither a structured plugin nor a legacy function", ErrNoEntrypoint, m.Name)
	}
}

// Error reports the failing plugin and pipeline stage.
type Error struct {
	Plugin string
	Stage  string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plugin %q: %s: %v", e.Plugin, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ConfigError is returned when a plugin rejects its configuration.
type ConfigError struct {
	Plugin string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

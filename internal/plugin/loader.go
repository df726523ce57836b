package plugin

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/quillcms/internal/engine"
	"github.com/quillcms/internal/models"
)

// Loader applies the plugins declared by the content repository to an engine.
type Loader struct {
	resolver Resolver
	log      zerolog.Logger
}

func NewLoader(resolver Resolver, log zerolog.Logger) *Loader {
	return &Loader{resolver: resolver, log: log}
}

// Plugify reads the plugin declarations from the engine's repository and
// applies them in declaration order. The first failure stops bring-up.
func (l *Loader) Plugify(e *engine.Engine) error {
	decls, err := e.Repository().GetPluginsData()
	if err != nil {
		return fmt.Errorf("read plugin declarations: %w", err)
	}
	for _, decl := range decls {
		if err := l.Apply(e, decl); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs one declaration through discover, classify, compatibility,
// validate, instantiate and apply.
func (l *Loader) Apply(e *engine.Engine, decl models.PluginDeclaration) error {
	fail := func(stage string, err error) error {
		return &Error{Plugin: decl.Name, Stage: stage, Err: err}
	}

	module, err := l.resolver.Resolve(decl.Name)
	if err != nil {
		return fail(StageDiscover, err)
	}

	style, err := module.Style()
	if err != nil {
		return fail(StageClassify, err)
	}

	if err := checkCompatibility(module); err != nil {
		return fail(StageCompatibility, err)
	}

	log := l.log.With().Str("plugin", decl.Name).Str("style", style.String()).Logger()

	if style == StyleLegacy {
		log.Warn().Msg("legacy plugin entrypoint is deprecated, migrate to a structured plugin")
		if err := runLegacy(e, module.Legacy, decl.Config); err != nil {
			return fail(StageApply, err)
		}
		log.Info().Msg("plugin applied")
		return nil
	}

	cfg, err := module.configure(decl.Config)
	if err != nil {
		return fail(StageValidate, &ConfigError{Plugin: decl.Name, Err: err})
	}

	instance, err := module.build(cfg)
	if err != nil {
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			err = &ConfigError{Plugin: decl.Name, Err: err}
		}
		return fail(StageInstantiate, err)
	}
	if instance == nil {
		return fail(StageInstantiate, &ConfigError{Plugin: decl.Name, Err: errors.New("factory returned no plugin")})
	}

	if err := process(e, instance); err != nil {
		return fail(StageApply, err)
	}
	log.Info().Msg("plugin applied")
	return nil
}

func checkCompatibility(m Module) error {
	if m.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return fmt.Errorf("%w: bad constraint %q: %v", ErrIncompatible, m.Requires, err)
	}
	core := semver.MustParse(CoreVersion)
	if !constraint.Check(core) {
		return fmt.Errorf("%w: requires %s, core is %s", ErrIncompatible, m.Requires, CoreVersion)
	}
	return nil
}

func process(e *engine.Engine, p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Process(e)
}

func runLegacy(e *engine.Engine, fn LegacyFunc, cfg map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	returned, err := fn(e, cfg)
	if err != nil {
		return err
	}
	if returned == nil {
		return errors.New("legacy plugin returned no engine")
	}
	if returned != e {
		return errors.New("legacy plugin returned a different engine")
	}
	return nil
}

package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	goplugin "plugin"
	"slices"
	"sync"
)

// Resolver finds the module installed under a plugin name.
type Resolver interface {
	Resolve(name string) (Module, error)
}

// Registry resolves modules compiled into the binary.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds m. A second module under the same name is an error rather
// than a silent replacement.
func (r *Registry) Register(m Module) error {
	if m.Name == "" {
		return fmt.Errorf("%w: module without a name", ErrNoEntrypoint)
	}
	if _, err := m.Style(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[m.Name]; exists {
		return fmt.Errorf("%w: %q", ErrAmbiguous, m.Name)
	}
	r.modules[m.Name] = m
	return nil
}

func (r *Registry) Resolve(name string) (Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	if !ok {
		return Module{}, notFound(name)
	}
	return m, nil
}

// Names lists the registered plugin names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var builtin = NewRegistry()

// Register adds m to the built-in registry. Plugin packages call it from init.
func Register(m Module) {
	if err := builtin.Register(m); err != nil {
		panic(err)
	}
}

// Builtin returns the registry filled by Register.
func Builtin() *Registry {
	return builtin
}

// SymbolName is the symbol a shared object plugin must export.
const SymbolName = "NewModule"

// SharedObjectResolver loads <Dir>/quill_<name>.so built with
// -buildmode=plugin. The object exports NewModule func() plugin.Module.
type SharedObjectResolver struct {
	Dir string
}

// Path returns where the shared object for name is expected.
func (s SharedObjectResolver) Path(name string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("quill_%s.so", name))
}

func (s SharedObjectResolver) Resolve(name string) (Module, error) {
	if s.Dir == "" {
		return Module{}, notFound(name)
	}
	path := s.Path(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Module{}, notFound(name)
		}
		return Module{}, err
	}

	so, err := goplugin.Open(path)
	if err != nil {
		return Module{}, fmt.Errorf("open %s: %w", path, err)
	}
	sym, err := so.Lookup(SymbolName)
	if err != nil {
		return Module{}, fmt.Errorf("%w: %s does not export %s", ErrNoEntrypoint, path, SymbolName)
	}
	newModule, ok := sym.(func() Module)
	if !ok {
		return Module{}, fmt.Errorf("%w: %s.%s has type %T", ErrNoEntrypoint, path, SymbolName, sym)
	}

	m := newModule()
	if m.Name == "" {
		m.Name = name
	}
	return m, nil
}

// Chain tries each resolver in turn and returns the first module found.
type Chain []Resolver

func (c Chain) Resolve(name string) (Module, error) {
	for _, r := range c {
		m, err := r.Resolve(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return m, err
	}
	return Module{}, notFound(name)
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q (expected a registered module or a quill_%s shared object)", ErrNotFound, name, name)
}

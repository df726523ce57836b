package db

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ExtensionFunc is an operation bound onto a repository at runtime.
// self is the concrete backend the function was bound to.
type ExtensionFunc func(self Repository, args ...any) (any, error)

// coreOperations may not be shadowed by extensions.
var coreOperations = map[string]struct{}{}

func init() {
	for _, name := range []string{
		"Name", "GetAllPosts", "GetPost", "GetPage", "GetPostsByTag", "AddComment",
		"GetMenuItems", "GetAppDescription", "GetLogoURL", "GetFaviconURL", "GetFont",
		"GetPrimaryColor", "GetSecondaryColor", "GetPluginsData", "Extend", "Invoke",
		"get_all_posts", "get_post", "get_page", "get_posts_by_tag", "add_comment",
		"get_menu_items", "get_app_description", "get_logo_url", "get_favicon_url",
		"get_font", "get_primary_color", "get_secondary_color", "get_plugins_data",
		"extend", "invoke",
	} {
		coreOperations[name] = struct{}{}
	}
}

type extensionSet struct {
	mu    sync.RWMutex
	funcs map[string]ExtensionFunc
}

func (s *extensionSet) extend(name string, fn any) error {
	if fn == nil {
		return fmt.Errorf("%w: extension %q is nil", ErrInvalidArgument, name)
	}
	value := reflect.ValueOf(fn)
	if value.Kind() != reflect.Func {
		return fmt.Errorf("%w: extension %q is a %T, not a function", ErrInvalidArgument, name, fn)
	}
	if value.IsNil() {
		return fmt.Errorf("%w: extension %q is a nil function", ErrInvalidArgument, name)
	}

	var bound ExtensionFunc
	switch f := fn.(type) {
	case ExtensionFunc:
		bound = f
	case func(Repository, ...any) (any, error):
		bound = f
	default:
		return fmt.Errorf("%w: extension %q has signature %T", ErrExtension, name, fn)
	}

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty extension name", ErrExtension)
	}
	if _, reserved := coreOperations[name]; reserved {
		return fmt.Errorf("%w: %q shadows a repository operation", ErrExtension, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.funcs[name]; exists {
		return fmt.Errorf("%w: %q is already bound", ErrExtension, name)
	}
	if s.funcs == nil {
		s.funcs = make(map[string]ExtensionFunc)
	}
	s.funcs[name] = bound
	return nil
}

func (s *extensionSet) invoke(self Repository, name string, args []any) (any, error) {
	s.mu.RLock()
	fn, ok := s.funcs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q on %s", ErrUnknownExtension, name, self.Name())
	}
	return fn(self, args...)
}

// Call invokes an extension and asserts its result type.
// A nil result yields the zero value of T.
func Call[T any](repo Repository, name string, args ...any) (T, error) {
	var zero T
	out, err := repo.Invoke(name, args...)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q returned %T", ErrExtension, name, out)
	}
	return typed, nil
}

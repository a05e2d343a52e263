package commands

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DuplicateError reports a name or alias claimed by two commands.
type DuplicateError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("command `%s` has been defined multiple times (by %q and %q)", e.Name, e.First, e.Second)
}

// Registry maps every command name and alias to its definition. It is never
// modified after Build returns, so lookups need no locking.
type Registry struct {
	byName map[string]Definition
	defs   []Definition
}

// Build indexes defs by name, then by each alias in declared order.
func Build(defs []Definition) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Definition, len(defs)),
		defs:   make([]Definition, 0, len(defs)),
	}

	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("command with empty name")
		}
		if def.Handler == nil {
			return nil, fmt.Errorf("command `%s` has no handler", def.Name)
		}

		keys := append([]string{def.Name}, def.Aliases...)
		for _, key := range keys {
			if existing, ok := r.byName[key]; ok {
				return nil, &DuplicateError{Name: key, First: existing.Name, Second: def.Name}
			}
			r.byName[key] = def
		}
		r.defs = append(r.defs, def)
	}

	return r, nil
}

// MustBuild is Build for startup code: an ambiguous command table is a
// programming error, so it panics instead of returning.
func MustBuild(defs []Definition) *Registry {
	r, err := Build(defs)
	if err != nil {
		panic(err)
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of every command added with Register. It is
// built on first call; later calls return the same value.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = MustBuild(registeredDefinitions())
	})
	return defaultRegistry
}

func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Definitions returns the registered commands sorted by name.
func (r *Registry) Definitions() []Definition {
	out := append([]Definition(nil), r.defs...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

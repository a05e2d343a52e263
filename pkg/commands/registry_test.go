package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *Services, Origin, Args) error {
	return nil
}

type namedHandler struct{}

func (namedHandler) handle(context.Context, *Services, Origin, Args) error {
	return nil
}

func TestBuild_IndexesNamesAndAliases(t *testing.T) {
	r, err := Build([]Definition{
		{Name: "recent", Aliases: []string{"rs"}, Handler: HandlerFunc(noop)},
		{Name: "ping", Aliases: []string{"p"}, Handler: HandlerFunc(noop)},
	})
	require.NoError(t, err)

	for _, key := range []string{"recent", "rs", "ping", "p"} {
		_, ok := r.Lookup(key)
		assert.True(t, ok, key)
	}

	def, ok := r.Lookup("rs")
	require.True(t, ok)
	assert.Equal(t, "recent", def.Name)

	_, ok = r.Lookup("RS")
	assert.False(t, ok, "lookups are case-sensitive")
	_, ok = r.Lookup("nonexistentcmd")
	assert.False(t, ok)
}

func TestBuild_RejectsDuplicates(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
		dup  string
	}{
		{
			name: "name twice",
			defs: []Definition{
				{Name: "osu", Handler: HandlerFunc(noop)},
				{Name: "osu", Handler: HandlerFunc(noop)},
			},
			dup: "osu",
		},
		{
			name: "alias shadows name",
			defs: []Definition{
				{Name: "recent", Handler: HandlerFunc(noop)},
				{Name: "recentpass", Aliases: []string{"recent"}, Handler: HandlerFunc(noop)},
			},
			dup: "recent",
		},
		{
			name: "alias on two commands",
			defs: []Definition{
				{Name: "recent", Aliases: []string{"r"}, Handler: HandlerFunc(noop)},
				{Name: "rank", Aliases: []string{"r"}, Handler: HandlerFunc(noop)},
			},
			dup: "r",
		},
		{
			name: "alias repeated within one command",
			defs: []Definition{
				{Name: "ping", Aliases: []string{"p", "p"}, Handler: HandlerFunc(noop)},
			},
			dup: "p",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Build(tt.defs)
			assert.Nil(t, r)

			var dupErr *DuplicateError
			require.True(t, errors.As(err, &dupErr), "got %v", err)
			assert.Equal(t, tt.dup, dupErr.Name)
			assert.Contains(t, err.Error(), "defined multiple times")

			assert.Panics(t, func() { MustBuild(tt.defs) })
		})
	}
}

func TestBuild_RejectsIncompleteDefinitions(t *testing.T) {
	_, err := Build([]Definition{{Name: "", Handler: HandlerFunc(noop)}})
	assert.Error(t, err)

	_, err = Build([]Definition{{Name: "osu"}})
	assert.ErrorContains(t, err, "no handler")
}

func TestRegistry_DefinitionsSorted(t *testing.T) {
	r := MustBuild([]Definition{
		{Name: "recentpass", Handler: HandlerFunc(noop)},
		{Name: "osu", Handler: HandlerFunc(noop)},
		{Name: "ping", Handler: HandlerFunc(noop)},
	})

	var names []string
	for _, def := range r.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"osu", "ping", "recentpass"}, names)
}

func TestFuncName(t *testing.T) {
	assert.Equal(t, "noop", FuncName(noop))
	assert.Equal(t, "handle", FuncName(namedHandler{}.handle))

	assert.Panics(t, func() {
		FuncName(func(context.Context, *Services, Origin, Args) error { return nil })
	})
	assert.Panics(t, func() { FuncName(nil) })
}

func TestRegister_AfterSealPanics(t *testing.T) {
	registeredMu.Lock()
	oldDefs, oldSealed := registered, sealed
	registered, sealed = nil, false
	registeredMu.Unlock()
	t.Cleanup(func() {
		registeredMu.Lock()
		registered, sealed = oldDefs, oldSealed
		registeredMu.Unlock()
	})

	RegisterFunc(noop, "n")
	defs := registeredDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "noop", defs[0].Name)
	assert.Equal(t, []string{"n"}, defs[0].Aliases)

	assert.Panics(t, func() { RegisterFunc(noop) })
}

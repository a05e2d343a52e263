package commands

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"sync"
)

type Definition struct {
	Name    string
	Aliases []string
	Handler Handler
}

var (
	registeredMu sync.Mutex
	registered   []Definition
	sealed       bool

	anonymousFunc = regexp.MustCompile(`^func\d+$`)
)

// Register adds def to the process-wide command set. It is meant to be
// called from init functions; registering after Default has been built
// panics.
func Register(def Definition) {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	if sealed {
		panic(fmt.Sprintf("command `%s` registered after the command table was built", def.Name))
	}
	registered = append(registered, def)
}

// RegisterFunc registers fn under its own Go identifier plus aliases, so
// `func recent(...)` becomes the "recent" command.
func RegisterFunc(fn HandlerFunc, aliases ...string) {
	Register(Definition{
		Name:    FuncName(fn),
		Aliases: aliases,
		Handler: fn,
	})
}

// FuncName returns the bare identifier of a top-level function. It panics for
// anonymous functions, which have no usable name.
func FuncName(fn HandlerFunc) string {
	if fn == nil {
		panic("commands: nil handler function")
	}
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	name := strings.TrimSuffix(full[strings.LastIndex(full, ".")+1:], "-fm")
	if name == "" || anonymousFunc.MatchString(name) {
		panic(fmt.Sprintf("commands: cannot derive a command name from %q", full))
	}
	return name
}

func registeredDefinitions() []Definition {
	registeredMu.Lock()
	defer registeredMu.Unlock()
	sealed = true
	return append([]Definition(nil), registered...)
}

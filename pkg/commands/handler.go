package commands

import (
	"context"

	"github.com/soban-bot/soban/pkg/beatmap"
	"github.com/soban-bot/soban/pkg/osu"
)

// Origin is where a command came from and how to answer it. Each chat
// backend provides its own implementation; handlers only ever call Send.
type Origin interface {
	Send(ctx context.Context, text string) error
	// Backend names the transport, e.g. "irc" or "matrix".
	Backend() string
	// Target identifies the channel or room replies go to.
	Target() string
}

// Services holds the process-wide dependencies handed to every command.
// It is shared by all in-flight dispatches and must not be mutated after
// startup.
type Services struct {
	Osu      osu.API
	Beatmaps beatmap.Source
}

// Args carries the parsed parts of an invocation a handler may need.
type Args struct {
	Rest  string
	Index *uint32
}

// IndexOr returns the numeric suffix, or def when none was given.
func (a Args) IndexOr(def uint32) uint32 {
	if a.Index == nil {
		return def
	}
	return *a.Index
}

// Handler runs one command. Errors are logged by the Dispatcher; anything
// the user should see must be sent through origin by the handler itself.
type Handler interface {
	Run(ctx context.Context, svc *Services, origin Origin, args Args) error
}

// HandlerFunc lets an ordinary function be used as a Handler.
type HandlerFunc func(ctx context.Context, svc *Services, origin Origin, args Args) error

func (f HandlerFunc) Run(ctx context.Context, svc *Services, origin Origin, args Args) error {
	return f(ctx, svc, origin, args)
}

// Package builtin holds the chat commands shipped with the bot. Importing it
// registers them with commands.Default.
package builtin

import (
	"context"

	"github.com/soban-bot/soban/pkg/commands"
)

func init() {
	commands.RegisterFunc(ping, "p")
}

func ping(ctx context.Context, _ *commands.Services, origin commands.Origin, _ commands.Args) error {
	return origin.Send(ctx, "pong!")
}

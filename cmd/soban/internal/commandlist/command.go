// Package commandlist prints the chat commands compiled into the binary.
package commandlist

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soban-bot/soban/pkg/commands"
	_ "github.com/soban-bot/soban/pkg/commands/builtin"
)

func NewCommandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"cmds"},
		Short:   "List the chat commands and their aliases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listCommands(cmd, commands.Default())
		},
	}
}

func listCommands(cmd *cobra.Command, reg *commands.Registry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tALIASES")
	for _, def := range reg.Definitions() {
		aliases := "-"
		if len(def.Aliases) > 0 {
			aliases = strings.Join(def.Aliases, ", ")
		}
		fmt.Fprintf(w, "%s%s\t%s\n", commands.Prefix, def.Name, aliases)
	}
	return w.Flush()
}

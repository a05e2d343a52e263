// Soban - osu! stats bot for IRC and Matrix
// License: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soban-bot/soban/cmd/soban/internal"
	"github.com/soban-bot/soban/cmd/soban/internal/commandlist"
	"github.com/soban-bot/soban/cmd/soban/internal/gateway"
	"github.com/soban-bot/soban/cmd/soban/internal/version"
)

func NewSobanCommand() *cobra.Command {
	short := fmt.Sprintf("%s soban - osu! stats bot for IRC and Matrix v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:          "soban",
		Short:        short,
		Example:      "soban gateway --debug",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&internal.ConfigPath, "config", "c", "", "Path to config file (default ~/.soban/config.json)")

	cmd.AddCommand(
		gateway.NewGatewayCommand(),
		commandlist.NewCommandsCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	if err := NewSobanCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

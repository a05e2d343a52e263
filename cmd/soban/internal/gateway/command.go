package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soban-bot/soban/cmd/soban/internal"
	"github.com/soban-bot/soban/pkg/beatmap"
	"github.com/soban-bot/soban/pkg/channels"
	"github.com/soban-bot/soban/pkg/commands"
	_ "github.com/soban-bot/soban/pkg/commands/builtin"
	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
	"github.com/soban-bot/soban/pkg/osu"
	"github.com/soban-bot/soban/pkg/tracing"
)

func NewGatewayCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "gateway",
		Aliases: []string{"g"},
		Short:   "Connect to the chat backends and answer commands",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return gatewayCmd(debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func gatewayCmd(debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := internal.SetupLogging(cfg.Log, debug); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s soban %s starting, press Ctrl+C to stop\n", internal.Logo, internal.FormatVersion())
	return Run(ctx, cfg)
}

// Run validates cfg, wires the services and serves every enabled backend
// until ctx is cancelled or one of them fails.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := tracing.Init(ctx, cfg.Tracing, internal.GetVersion()); err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.WarnCF("gateway", "Tracing shutdown failed", map[string]any{"error": err.Error()})
		}
	}()

	registry := commands.Default()
	svc := &commands.Services{
		Osu:      osu.NewClient(ctx, cfg.Osu),
		Beatmaps: beatmap.NewCache(cfg.Beatmaps),
	}
	dispatcher := commands.NewDispatcher(registry, svc)

	manager, err := channels.NewManager(cfg, dispatcher)
	if err != nil {
		return fmt.Errorf("failed to create channels: %w", err)
	}

	logger.InfoCF("gateway", "Gateway started", map[string]any{
		"version":  internal.FormatVersion(),
		"commands": len(registry.Definitions()),
		"channels": manager.GetEnabledChannels(),
	})

	if err := manager.Run(ctx); err != nil {
		return err
	}

	logger.InfoC("gateway", "Gateway stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/weftfmt/weft/internal/infrastructure/container"
)

// CommandContext provides common command dependencies, eliminating
// repetitive container initialization across CLI commands.
type CommandContext struct {
	Container *container.Container
	Logger    *slog.Logger
	Context   context.Context
}

// CommandHandler executes with initialized dependencies.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withContainer wraps a command handler with container initialization.
func withContainer(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		c, err := container.New(cmd.Context(), container.Options{
			Logger:        logger,
			AppName:       "weft",
			UseOCI:        true,
			RequireSigner: requireSigningKey,
			SchemaDir:     schemaDir,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer c.Close(cmd.Context())

		ctx := &CommandContext{
			Container: c,
			Logger:    logger,
			Context:   cmd.Context(),
		}

		return handler(ctx, cmd, args)
	}
}

// addCommonFlags is a placeholder for per-command flags shared beyond what
// CommonOptions.RegisterFlags already covers; the config path itself is a
// persistent root flag (cfgFile in root.go), not redeclared per command.
func addCommonFlags(cmd *cobra.Command) {}

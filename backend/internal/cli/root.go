// Package cli implements the padbind command line.
package cli

import (
	"context"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/config"
	"github.com/soar/padbind/backend/internal/gamepad"
)

// Input is a source of per-player controller state.
type Input interface {
	Run(ctx context.Context) error
	Changes() <-chan gamepad.GamepadState
}

// Deps are the platform pieces the serve command runs on.
type Deps struct {
	// NewInput creates the controller reader feeding bindings.
	NewInput func(logger *zap.Logger, bindings *gamepad.Bindings) Input
	// Frontend is the static web interface.
	Frontend fs.FS
	// Icon is the tray icon, nil for none.
	Icon []byte
}

type commandContext struct {
	deps       Deps
	configFlag string
}

func (c *commandContext) openConfig(cmd *cobra.Command) (*config.Store, error) {
	return config.Open(c.configFlag, cmd.Flags())
}

// NewRootCommand builds the padbind command tree. Running it without a
// subcommand serves.
func NewRootCommand(deps Deps) *cobra.Command {
	ctx := &commandContext{deps: deps}

	rootCmd := &cobra.Command{
		Use:           "padbind",
		Short:         "Bind game controllers to player slots",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	addServeFlags(rootCmd)

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newBindingsCommand(ctx))
	return rootCmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "HTTP listen address (default :8080)")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
}

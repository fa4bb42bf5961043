package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/soar/padbind/backend/internal/config"
	"github.com/soar/padbind/backend/internal/playermap"
)

func newBindingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindings",
		Short: "Inspect or change the persisted player bindings",
	}
	cmd.AddCommand(
		newBindingsShowCommand(ctx),
		newBindingsClearCommand(ctx),
		newBindingsToggleCommand(ctx, "enable", "Route controller input by player bindings", true),
		newBindingsToggleCommand(ctx, "disable", "Pass every controller through to every player", false),
	)
	return cmd
}

func newBindingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the persisted bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openConfig(cmd)
			if err != nil {
				return err
			}
			cfg, err := store.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			state := "disabled"
			if cfg.Bindings.Enabled {
				state = "enabled"
			}
			fmt.Fprintf(out, "Player bindings %s (%s)\n", state, store.Path())

			pairs := playermap.ParsePairs(cfg.Bindings.Map)
			if len(pairs) == 0 {
				fmt.Fprintln(out, "No bindings")
				return nil
			}
			fmt.Fprintln(out, renderPairs(pairs))
			return nil
		},
	}
}

func renderPairs(pairs []playermap.Pair) string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		kind := "unique name"
		if playermap.IsDeviceID(p.Token) {
			kind = "device id"
		}
		player := strconv.Itoa(int(p.Player))
		if !p.Player.Valid() {
			player += " (invalid)"
		}
		rows = append(rows, []string{player, p.Token, kind})
	}
	return renderTable(
		[]string{"Player", "Device", "Kind"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}

func newBindingsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget every persisted binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateBindings(cmd, ctx, func(b *config.BindingsConfig) {
				b.Map = ""
			})
		},
	}
}

func newBindingsToggleCommand(ctx *commandContext, use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateBindings(cmd, ctx, func(b *config.BindingsConfig) {
				b.Enabled = enabled
			})
		},
	}
}

func updateBindings(cmd *cobra.Command, ctx *commandContext, fn func(*config.BindingsConfig)) error {
	store, err := ctx.openConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	fn(&cfg.Bindings)
	if err := store.SaveBindings(cfg.Bindings.Map, cfg.Bindings.Enabled); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", store.Path())
	return nil
}

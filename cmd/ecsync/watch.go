package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/ecsync/internal/app"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Fix files as they change until interrupted",
		Long: `Watch monitors the workspace and saves every file that is created or
written through the pre-save transformations. Changes to .editorconfig
and workspace settings files reload the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, v)
		},
	}
	cmd.Flags().Duration("debounce", 100*time.Millisecond, "Quiet period before a changed file is processed")
	_ = v.BindPFlag(keyDebounce, cmd.Flags().Lookup("debounce"))
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, v *viper.Viper) error {
	a, err := app.New(appOptions(v, cmd))
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Shutdown()
	return a.Watch(ctx)
}

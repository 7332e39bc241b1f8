package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/ecsync/internal/app"
)

func newFixCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "fix [path...]",
		Short: "Apply pre-save transformations and write changed files",
		Long: `Fix saves every named file, or every file below a named directory, the
way an editor would: the matching .editorconfig properties are applied
and the file is written when its content changed.

With no arguments the whole workspace is processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, v, args, false)
		},
	}
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path...]",
		Short: "Report files that fix would change",
		Long: `Check runs the same transformations as fix without writing anything.
It lists the files that would change and exits with status 1 if there
are any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, v, args, true)
		},
	}
}

func runProcess(cmd *cobra.Command, v *viper.Viper, args []string, dryRun bool) error {
	opts := appOptions(v, cmd)
	opts.DryRun = dryRun

	a, err := app.New(opts)
	if err != nil {
		return err
	}
	if err := a.Start(cmd.Context()); err != nil {
		return err
	}
	defer a.Shutdown()

	report, err := a.Process(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Failed() {
		fmt.Fprintf(out, "%s: error: %v\n", f.Rel, f.Err)
	}
	changed := report.Changed()
	for _, f := range changed {
		if dryRun {
			fmt.Fprintf(out, "%s: needs changes (%d edits)\n", f.Rel, f.Edits)
		} else {
			fmt.Fprintf(out, "%s: fixed\n", f.Rel)
		}
	}

	if err := report.Err(); err != nil {
		return err
	}
	if dryRun && len(changed) > 0 {
		return fmt.Errorf("%w: %d of %d files", app.ErrChangesNeeded, len(changed), len(report.Files))
	}
	return nil
}

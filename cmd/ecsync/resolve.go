package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/ecsync/internal/app"
)

func newResolveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <file>",
		Short: "Print the EditorConfig properties and editor options for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(appOptions(v, cmd))
			if err != nil {
				return err
			}
			res, rerr := a.Resolve(cmd.Context(), args[0])
			if res == nil {
				return rerr
			}
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return rerr
		},
	}
}

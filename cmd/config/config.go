// Package config implements the config command group.
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/callguard/internal/conf"
)

// Command creates the config command and its subcommands.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(initCommand())
	return cmd
}

func initCommand() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config.yaml populated with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.WriteDefaultConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Set api.key (or CALLGUARD_API_KEY) before running serve.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "config.yaml", "Path of the file to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

// Package cmd wires the callguard command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/callguard/cmd/analyze"
	configcmd "github.com/tphakala/callguard/cmd/config"
	"github.com/tphakala/callguard/cmd/serve"
	"github.com/tphakala/callguard/internal/buildinfo"
	"github.com/tphakala/callguard/internal/conf"
	"github.com/tphakala/callguard/internal/logger"
)

// RootCommand creates and returns the root command
func RootCommand(info *buildinfo.Context) *cobra.Command {
	var configFile string
	settings := &conf.Settings{}

	rootCmd := &cobra.Command{
		Use:           "callguard",
		Short:         "AI-generated voice detection service",
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml (default: search ., ~/.config/callguard, /etc/callguard)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("error binding debug flag: %v", err))
	}

	configCmd := configcmd.Command()

	rootCmd.AddCommand(
		serve.Command(settings, info),
		analyze.Command(settings),
		configCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config init must work without a loadable configuration
		if cmd.HasParent() && cmd.Parent() == configCmd {
			return nil
		}
		return initialize(configFile, settings)
	}

	return rootCmd
}

// initialize loads settings and installs the global logger before any
// subcommand runs.
func initialize(configFile string, settings *conf.Settings) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}

	loaded, err := conf.Load()
	if err != nil {
		return err
	}
	*settings = *loaded

	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)

	return nil
}

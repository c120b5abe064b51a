package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() (*cobra.Command, *commandContext) {
	var flags globalFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "trustwave",
		Short:         "TrustWave catalog tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "TOML configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVar(&flags.dataPath, "data-path", "", "Directory for local state")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newSongsCommand(ctx))
	rootCmd.AddCommand(newArtistsCommand(ctx))
	rootCmd.AddCommand(newTrendingCommand(ctx))
	rootCmd.AddCommand(newTrustCommand(ctx))
	rootCmd.AddCommand(newJanitorCommand(ctx))
	rootCmd.AddCommand(newImportSongsCommand(ctx))

	return rootCmd, ctx
}

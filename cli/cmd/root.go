package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "hocon",
		Short:        "hocon",
		SilenceUsage: true,
		Long:         `CLI tool for resolving HOCON configuration files: evaluates substitutions, includes and merges, and prints the result.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	roots   []string
	verbose bool
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringSliceVarP(&roots, "root", "r", nil, "directory searched for includes; can be repeated, defaults to the current directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log include resolution at debug level")
	return rootCmd.Execute()
}

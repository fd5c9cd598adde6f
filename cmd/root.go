// cmd/root.go
//
// Package cmd wires the hydrodp CLI: a root command carrying the shared
// --log flag, and solve/replay subcommands fronting the solver and
// replay packages.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "hydrodp",
	Short: "Hydroelectric plant dispatch optimizer",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(replayCmd)
}

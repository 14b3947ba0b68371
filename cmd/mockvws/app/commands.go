// Package app provides the entry point for the mock-vws command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/konstin/vws-python-mock/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "mockvws",
	DisableAutoGenTag: true,
	Short:             "mockvws runs in-memory fakes of the Vuforia web services",
	Long: `mockvws runs in-memory fakes of the Vuforia Web Services API and the
Vuforia Web Query API, for testing applications that target the real
services without network access or a Vuforia account.

State lives in memory and is administered through an unauthenticated admin
service: create databases with known credentials there, then point your
application's VWS/VWQ base URLs at the two mock services.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the mock-vws CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)

	return rootCmd
}

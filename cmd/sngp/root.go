package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command for the sngp CLI.
var rootCmd = &cobra.Command{
	Use:   "sngp",
	Short: "Spectral-normalized neural Gaussian process demos",
	Long: `sngp demonstrates the two building blocks of distance-aware deep
classifiers: spectral normalization of convolution layers and a
random-feature Gaussian process output head with online covariance
estimation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sngp %s\n", version)
		fmt.Println("Use 'sngp spectralnorm' or 'sngp gp' to run a demo")
	},
}

// versionCmd prints the CLI version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sngp %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Package cli implements the command-line interface for retaildw.
package cli

import (
	"github.com/spf13/cobra"

	"retaildw/internal/config"
	"retaildw/internal/logging"
	"retaildw/internal/version"
)

var (
	// Global flags
	cfgFile  string
	input    string
	whKind   string
	whDSN    string
	logLevel string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "retaildw",
		Short: "Retail transactions warehouse builder",
		Long: `retaildw reads a raw retail transactions CSV (Online Retail II
format), cleans it, builds a star-schema warehouse (date, product, customer,
and country dimensions plus a sales fact table), and atomically replaces the
contents of the target database. It can also export each warehouse table as
CSV for the dashboard tool.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./retaildw.yaml)")
	rootCmd.PersistentFlags().StringVar(&input, "input", "",
		"path to the raw transactions CSV")
	rootCmd.PersistentFlags().StringVar(&whKind, "kind", "",
		"warehouse kind (sqlite, postgres, mysql, mssql)")
	rootCmd.PersistentFlags().StringVar(&whDSN, "dsn", "",
		"warehouse connection string (file path for sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(genCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if input != "" {
		cfg.Source.Path = input
	}
	if whKind != "" {
		cfg.Warehouse.Kind = whKind
	}
	if whDSN != "" {
		cfg.Warehouse.DSN = whDSN
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("retaildw %s\n", version.Version)
	},
}

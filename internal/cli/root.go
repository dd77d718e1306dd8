// Package cli provides the command-line interface for curator.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/config"
	"github.com/pgnkit/curator/internal/metrics"
	"github.com/pgnkit/curator/internal/quarantine"
	"github.com/pgnkit/curator/internal/store"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	cfgFile string
	verbose bool

	// Global config, logger and store
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	st         *store.Store
	collector  *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Chess document library curator",
	Long: `Curator scores chess documents (PGN files, books, studies) by their
educational value, renames them to descriptive filenames, and manages the
file lifecycle: staging, renaming with a rollback journal, quarantining
low-value files, and restoring them.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip store setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.LogLevel = "DEBUG"
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.Level())
		quarantine.SetCollectionSegments(cfg.CollectionSegments)
		collector = metrics.NewCollector()

		st, err = store.Open(cfg.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			if err := st.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the curator version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("curator %s\n", Version)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default curator.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(quarantineCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frye/navtool-sub009/cmd/navtool/commands"
	"github.com/frye/navtool-sub009/logger"
)

var rootCmd = &cobra.Command{
	Use:   "navtool",
	Short: "navtool - Marine chart loading and integrity pipeline",
	Long: `navtool loads S-57 chart cells from exchange-set archives with
content-hash integrity verification.

Available commands:
  load     - Load chart cells from an archive
  archive  - Inspect chart archives
  registry - Inspect the chart integrity registry
  history  - Show recent chart load outcomes
  watch    - Watch a drop directory and load new archives

Examples:
  navtool load charts.zip US5WA50M     # Load one cell from an archive
  navtool archive ls charts.zip        # List cells in an archive
  navtool registry ls                  # Show trusted chart hashes
  navtool history --limit 20           # Show recent load outcomes
  navtool watch ~/charts/incoming      # Auto-load dropped archives`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("log-json")
		if err := logger.Initialize(verbosity, jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON instead of console output")

	rootCmd.AddCommand(commands.LoadCmd)
	rootCmd.AddCommand(commands.ArchiveCmd)
	rootCmd.AddCommand(commands.RegistryCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

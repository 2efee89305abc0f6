package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/integrity"
	"github.com/frye/navtool-sub009/errors"
	"github.com/frye/navtool-sub009/logger"
)

// RegistryCmd represents the registry command
var RegistryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the chart integrity registry",
	Long: `Inspect the trusted content hashes recorded for loaded charts.

The first successful load of a chart records its content hash; every later
load of that chart must produce the same hash.

Examples:
  navtool registry ls             # List all trusted chart hashes
  navtool registry show US5WA50M  # Show the record for one chart`,
}

var registryLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all integrity records",
	RunE:  runRegistryLs,
}

var registryShowCmd = &cobra.Command{
	Use:   "show <chart-id>",
	Short: "Show the integrity record for one chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistryShow,
}

func init() {
	RegistryCmd.AddCommand(registryLsCmd)
	RegistryCmd.AddCommand(registryShowCmd)
}

func runRegistryLs(cmd *cobra.Command, args []string) error {
	database, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	registry, err := integrity.OpenRegistry(cmd.Context(), database, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open integrity registry")
	}

	records := registry.List()
	if len(records) == 0 {
		pterm.Info.Println("No charts in the integrity registry yet")
		return nil
	}

	rows := pterm.TableData{{"CHART", "CONTENT HASH", "FIRST OBSERVED", "LAST VERIFIED"}}
	for _, rec := range records {
		lastVerified := "-"
		if rec.LastVerifiedAt != nil {
			lastVerified = rec.LastVerifiedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{
			rec.ChartID,
			rec.ContentHash[:12] + "...",
			rec.FirstObservedAt.Format("2006-01-02 15:04:05"),
			lastVerified,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runRegistryShow(cmd *cobra.Command, args []string) error {
	chartID := chart.NormalizeCellID(args[0])

	database, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	registry, err := integrity.OpenRegistry(cmd.Context(), database, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open integrity registry")
	}

	rec := registry.Lookup(chartID)
	if rec == nil {
		return errors.Newf("no integrity record for %s; load the chart once to record its hash", chartID)
	}

	pterm.Printfln("Chart:          %s", rec.ChartID)
	pterm.Printfln("Content hash:   %s", rec.ContentHash)
	pterm.Printfln("First observed: %s", rec.FirstObservedAt.Format("2006-01-02 15:04:05 MST"))
	if rec.LastVerifiedAt != nil {
		pterm.Printfln("Last verified:  %s", rec.LastVerifiedAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		pterm.Printfln("Last verified:  never re-verified")
	}
	return nil
}

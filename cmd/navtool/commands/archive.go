package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/frye/navtool-sub009/chart/extract"
	"github.com/frye/navtool-sub009/errors"
)

// ArchiveCmd represents the archive command
var ArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect chart archives",
	Long: `Inspect local exchange-set archives without loading anything.

Examples:
  navtool archive ls charts.zip    # List the chart cells in an archive`,
}

var archiveLsCmd = &cobra.Command{
	Use:   "ls <archive>",
	Short: "List chart cells in an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveLs,
}

func init() {
	ArchiveCmd.AddCommand(archiveLsCmd)
}

func runArchiveLs(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", args[0])
	}

	cells, err := extract.ListDatasets(data)
	if err != nil {
		return errors.Wrapf(err, "failed to read archive %s", args[0])
	}

	if len(cells) == 0 {
		pterm.Info.Printfln("No chart cells found in %s", args[0])
		return nil
	}

	rows := pterm.TableData{{"CHART CELL"}}
	for _, cell := range cells {
		rows = append(rows, []string{cell})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

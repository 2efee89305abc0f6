package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/history"
)

// HistoryCmd represents the history command
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent chart load outcomes",
	Long: `Show the terminal outcome of recent chart load requests.

Examples:
  navtool history                   # Most recent loads
  navtool history --limit 50        # More of them
  navtool history --chart US5WA50M  # Loads of one chart`,
	RunE: runHistory,
}

var (
	historyLimitFlag int
	historyChartFlag string
)

func init() {
	HistoryCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Number of entries to show")
	HistoryCmd.Flags().StringVar(&historyChartFlag, "chart", "", "Only show loads of this chart")
}

func runHistory(cmd *cobra.Command, args []string) error {
	database, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	store := history.NewStore(database)

	var entries []*history.Entry
	if historyChartFlag != "" {
		entries, err = store.ListForChart(cmd.Context(), chart.NormalizeCellID(historyChartFlag), historyLimitFlag)
	} else {
		entries, err = store.List(cmd.Context(), historyLimitFlag)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		pterm.Info.Println("No load history yet")
		return nil
	}

	rows := pterm.TableData{{"FINISHED", "CHART", "STATUS", "ERROR", "RETRIES", "DURATION"}}
	for _, e := range entries {
		errorKind := "-"
		if e.ErrorKind != "" {
			errorKind = e.ErrorKind
		}
		rows = append(rows, []string{
			e.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			e.ChartID,
			e.Status,
			errorKind,
			pterm.Sprintf("%d", e.RetryCount),
			e.Duration.String(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

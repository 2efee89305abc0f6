package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/history"
	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/chart/queue"
	"github.com/frye/navtool-sub009/errors"
	"github.com/frye/navtool-sub009/logger"
)

// LoadCmd represents the load command
var LoadCmd = &cobra.Command{
	Use:   "load <archive> <chart-id> [chart-id...]",
	Short: "Load chart cells from an exchange-set archive",
	Long: `Load one or more chart cells from a local exchange-set archive.

Each cell is extracted, hash-verified against the integrity registry, and
decoded. The first load of a cell records its content hash; later loads must
match it.

Examples:
  navtool load charts.zip US5WA50M              # Load one cell
  navtool load charts.zip US5WA50M US4AK4P0     # Load several cells in order`,
	Args: cobra.MinimumNArgs(2),
	RunE: runLoad,
}

// loaderFunc adapts a closure to the queue's ChartLoader interface, which
// lets the queue be constructed before the loader that feeds it progress
// events
type loaderFunc func(ctx context.Context, req *chart.LoadRequest) *loader.Result

func (f loaderFunc) Load(ctx context.Context, req *chart.LoadRequest) *loader.Result {
	return f(ctx, req)
}

func runLoad(cmd *cobra.Command, args []string) error {
	archivePath := args[0]
	cellIDs := args[1:]

	database, cfg, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var ldr *loader.Loader
	q := queue.New(
		loaderFunc(func(ctx context.Context, req *chart.LoadRequest) *loader.Result {
			return ldr.Load(ctx, req)
		}),
		logger.Logger,
		queue.WithHistory(history.NewStore(database)),
		queue.WithSubscriberBuffer(cfg.Queue.SubscriberBuffer),
	)
	ldr, _, err = buildLoader(ctx, database, cfg, loader.WithProgressEmitter(q))
	if err != nil {
		return err
	}

	events, unsubscribe := q.Subscribe()
	defer unsubscribe()
	go reportSlowLoads(events)

	q.Start(ctx)

	handles := make([]<-chan *loader.Result, 0, len(cellIDs))
	for _, cellID := range cellIDs {
		req, err := chart.NewLoadRequest(cellID, archivePath)
		if err != nil {
			return errors.Wrapf(err, "invalid chart ID %q", cellID)
		}
		handle, err := q.Enqueue(req)
		if err != nil {
			return err
		}
		handles = append(handles, handle)
	}

	failed := 0
	for _, handle := range handles {
		result := <-handle
		printResult(result)
		if !result.Succeeded() {
			failed++
		}
	}

	if failed > 0 {
		return errors.Newf("%d of %d charts failed to load", failed, len(handles))
	}
	return nil
}

// reportSlowLoads surfaces slow-load progress events to the terminal
func reportSlowLoads(events <-chan queue.Event) {
	for ev := range events {
		switch ev.Type {
		case queue.EventSlowLoad:
			pterm.Info.Printfln("Loading %s is taking longer than expected...", ev.ChartID)
		case queue.EventSlowLoadCleared:
			// Terminal result is printed by the main loop
		}
	}
}

func printResult(result *loader.Result) {
	if result.Succeeded() {
		retries := ""
		if result.RetryCount > 0 {
			retries = fmt.Sprintf(" after %d retries", result.RetryCount)
		}
		pterm.Success.Printfln("%s loaded in %s%s (%d bytes)",
			result.Request.ChartID, result.Duration, retries, len(result.Chart.Data))
		return
	}

	pterm.Error.Printfln("%s: %s", result.Err.ChartID, result.Err.Message)
	pterm.Println("  " + result.Err.Guidance)
	if result.Err.TechnicalDetail != "" {
		pterm.Println(pterm.Gray("  detail: " + result.Err.TechnicalDetail))
	}
}

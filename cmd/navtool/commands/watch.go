package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/frye/navtool-sub009/chart"
	"github.com/frye/navtool-sub009/chart/discovery"
	"github.com/frye/navtool-sub009/chart/history"
	"github.com/frye/navtool-sub009/chart/loader"
	"github.com/frye/navtool-sub009/chart/queue"
	"github.com/frye/navtool-sub009/errors"
	"github.com/frye/navtool-sub009/logger"
)

// WatchCmd represents the watch command
var WatchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a drop directory and load new archives",
	Long: `Watch a directory for new exchange-set archives and load every chart
cell they contain. Archives are picked up once they stop changing.

The directory comes from the argument, or from [discovery] watch_dir in
navtool.toml when omitted. Runs until interrupted.

Examples:
  navtool watch ~/charts/incoming
  navtool watch                    # Use the configured watch_dir`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	database, cfg, err := openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	watchDir := cfg.Discovery.WatchDir
	if len(args) > 0 {
		watchDir = args[0]
	}
	if watchDir == "" {
		return errors.New("no watch directory given; pass one or set [discovery] watch_dir in navtool.toml")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
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
	go reportWatchEvents(events)

	q.Start(ctx)

	var opts []discovery.Option
	if cfg.Discovery.SettleMS > 0 {
		opts = append(opts, discovery.WithSettle(time.Duration(cfg.Discovery.SettleMS)*time.Millisecond))
	}
	watcher := discovery.New(watchDir, q, logger.Logger, opts...)

	pterm.Info.Printfln("Watching %s for chart archives (Ctrl-C to stop)", watchDir)
	if err := watcher.Run(ctx); err != nil {
		return err
	}

	// Let the in-flight load finish before tearing down
	q.Wait()
	return nil
}

// reportWatchEvents prints queue activity while watching
func reportWatchEvents(events <-chan queue.Event) {
	for ev := range events {
		switch ev.Type {
		case queue.EventEnqueued:
			pterm.Info.Printfln("%s queued (position %d)", ev.ChartID, ev.Position)
		case queue.EventSlowLoad:
			pterm.Info.Printfln("Loading %s is taking longer than expected...", ev.ChartID)
		case queue.EventLoadCompleted:
			if ev.Succeeded {
				pterm.Success.Printfln("%s loaded", ev.ChartID)
			} else {
				pterm.Error.Printfln("%s failed: %s", ev.ChartID, ev.ErrorKind)
			}
		}
	}
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/conflict"
	"github.com/harborline/slipway/internal/store"
	"github.com/harborline/slipway/internal/telemetry"
	"github.com/harborline/slipway/internal/timeline"
	"github.com/harborline/slipway/internal/ui"
	"github.com/harborline/slipway/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run conflict detection whenever the board changes",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	printer := ui.New()
	ctx := context.Background()

	cfg, st, err := openBoard(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer st.Close()

	tl, err := cfg.Timeline()
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	w, err := watch.New(cfg.DBPath)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	if err := w.Start(); err != nil {
		printer.Error(err.Error())
		return err
	}
	defer w.Stop()

	em := newEmitter(cfg)
	defer em.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	printer.Banner()
	printer.Watching(cfg.DBPath)

	// Initial pass so the user sees the board state immediately.
	if err := reportConflicts(ctx, st, tl, printer); err != nil {
		printer.Error(err.Error())
	}

	for {
		select {
		case <-sigCh:
			printer.Info("stopping")
			return nil
		case ch, ok := <-w.Changes:
			if !ok {
				return nil
			}
			em.Emit(telemetry.Event{Kind: telemetry.KindWatchChange, Data: map[string]any{
				"file": ch.File,
			}})
			if err := reportConflicts(ctx, st, tl, printer); err != nil {
				printer.Error(err.Error())
			}
		}
	}
}

func reportConflicts(ctx context.Context, st *store.Store, tl timeline.Config, printer *ui.Printer) error {
	snap, err := st.Snapshot(ctx, tl)
	if err != nil {
		return err
	}
	printer.ConflictReport(conflict.Detect(snap))
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/conflict"
	"github.com/harborline/slipway/internal/telemetry"
	"github.com/harborline/slipway/internal/ui"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Detect dependency and crane conflicts on the current board",
	RunE:  runConflicts,
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}

func runConflicts(cmd *cobra.Command, args []string) error {
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

	snap, err := st.Snapshot(ctx, tl)
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	report := conflict.Detect(snap)

	em := newEmitter(cfg)
	defer em.Close()
	em.Emit(telemetry.Event{Kind: telemetry.KindConflictReport, Data: map[string]any{
		"dependency": len(report.Dependency),
		"resource":   len(report.Resource),
	}})

	printer.ConflictReport(report)
	if report.Total() > 0 {
		return fmt.Errorf("%d conflict(s) found", report.Total())
	}
	return nil
}

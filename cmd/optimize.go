package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/depgraph"
	"github.com/harborline/slipway/internal/optimizer"
	"github.com/harborline/slipway/internal/telemetry"
	"github.com/harborline/slipway/internal/ui"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compute a balanced lane assignment for the board",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().Bool("apply", false, "write the plan back to the board")
	optimizeCmd.Flags().Int("attempts", 0, "restart budget (default from config)")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
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

	em := newEmitter(cfg)
	defer em.Close()

	budget := cfg.AttemptBudget
	if n, _ := cmd.Flags().GetInt("attempts"); n > 0 {
		budget = n
	}

	em.Emit(telemetry.Event{Kind: telemetry.KindOptimizeStart, Data: map[string]any{
		"cards": len(snap.Tasks), "budget": budget,
	}})

	res, err := optimizer.Optimize(snap, optimizer.Options{
		AttemptBudget: budget,
		Seed:          cfg.Seed,
	})
	if err != nil {
		if errors.Is(err, depgraph.ErrCycle) {
			printer.CycleError(err)
		} else {
			printer.Error(err.Error())
		}
		return err
	}

	kind := telemetry.KindPlanAccepted
	if res.BestEffort {
		kind = telemetry.KindPlanBestEffort
	}
	em.Emit(telemetry.Event{Kind: kind, Data: map[string]any{
		"attempts": res.Attempts, "moved": res.Moved,
		"max_workload": res.MaxWorkload, "avg_workload": res.AvgWorkload,
		"dependency_conflicts": res.DependencyConflicts,
		"resource_conflicts":   res.ResourceConflicts,
	}})

	printer.PlanSummary(res)
	for _, a := range res.Plan {
		fmt.Printf("%s\t%s\t%d\n", a.TaskNumber, a.LaneID, a.Position)
	}

	if apply, _ := cmd.Flags().GetBool("apply"); apply {
		if err := st.ApplyPlan(ctx, res.Plan); err != nil {
			printer.Error(err.Error())
			return err
		}
		em.Emit(telemetry.Event{Kind: telemetry.KindPlanApplied, Data: map[string]any{
			"assignments": len(res.Plan),
		}})
		printer.Applied(len(res.Plan))
	}

	if res.BestEffort {
		return fmt.Errorf("best effort plan: %d conflict(s) remain", res.DependencyConflicts+res.ResourceConflicts)
	}
	return nil
}

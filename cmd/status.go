package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/card"
	"github.com/harborline/slipway/internal/telemetry"
	"github.com/harborline/slipway/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status <card-number> [new-status]",
	Short: "Show or advance a card's build status",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer := ui.New()
	ctx := context.Background()

	cfg, st, err := openBoard(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer st.Close()

	t, err := st.TaskByNumber(ctx, args[0])
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	if len(args) == 1 {
		fmt.Printf("%s\t%s\n", t.Number, t.Status)
		return nil
	}

	next := card.Status(args[1])
	if !next.Valid() {
		err := fmt.Errorf("unknown status %q", args[1])
		printer.Error(err.Error())
		return err
	}

	from := t.Status
	if err := card.Transition(&t, next, time.Now()); err != nil {
		printer.Error(err.Error())
		return err
	}

	if err := st.SaveStatus(ctx, t); err != nil {
		printer.Error(err.Error())
		return err
	}

	em := newEmitter(cfg)
	defer em.Close()
	em.Emit(telemetry.Event{Kind: telemetry.KindStatusChange, Card: t.Number, Lane: t.LaneID, Data: map[string]any{
		"from": string(from), "to": string(next),
	}})

	printer.StatusChanged(t.Number, string(from), string(next))
	return nil
}

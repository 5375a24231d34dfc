package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/seed"
	"github.com/harborline/slipway/internal/ui"
)

var seedCmd = &cobra.Command{
	Use:   "seed <fixture.toml>",
	Short: "Load lanes and cards from a TOML fixture into the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	printer := ui.New()
	ctx := context.Background()

	board, err := seed.Load(args[0])
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	_, st, err := openBoard(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer st.Close()

	lanes := board.LaneSet()
	for _, l := range lanes {
		if err := st.UpsertLane(ctx, l); err != nil {
			printer.Error(err.Error())
			return fmt.Errorf("seeding lane %s: %w", l.ID, err)
		}
	}

	cards := board.Cards()
	for _, t := range cards {
		if err := st.UpsertTask(ctx, t); err != nil {
			printer.Error(err.Error())
			return fmt.Errorf("seeding card %s: %w", t.Number, err)
		}
	}

	printer.Seeded(len(lanes), len(cards))
	return nil
}

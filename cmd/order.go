package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/depgraph"
	"github.com/harborline/slipway/internal/ui"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print a dependency-respecting build order for all cards",
	RunE:  runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	printer := ui.New()
	ctx := context.Background()

	_, st, err := openBoard(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer st.Close()

	tasks, err := st.ListTasks(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	ordered, err := depgraph.ValidateAndOrder(tasks)
	if err != nil {
		if errors.Is(err, depgraph.ErrCycle) {
			printer.CycleError(err)
		} else {
			printer.Error(err.Error())
		}
		return err
	}

	printer.Order(ordered)
	return nil
}

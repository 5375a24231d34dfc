package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborline/slipway/internal/card"
	"github.com/harborline/slipway/internal/ui"
)

var lanesCmd = &cobra.Command{
	Use:   "lanes",
	Short: "List lanes with their card counts and workloads",
	RunE:  runLanes,
}

func init() {
	rootCmd.AddCommand(lanesCmd)
}

func runLanes(cmd *cobra.Command, args []string) error {
	printer := ui.New()
	ctx := context.Background()

	_, st, err := openBoard(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	defer st.Close()

	lanes, err := st.ListLanes(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}
	tasks, err := st.ListTasks(ctx)
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	count := make(map[string]int)
	hours := make(map[string]float64)
	for _, t := range tasks {
		if t.LaneID == "" || t.Status == card.StatusCompleted {
			continue
		}
		count[t.LaneID]++
		hours[t.LaneID] += t.DurationHours
	}

	for _, l := range lanes {
		state := "active"
		if !l.Active {
			state = "inactive"
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%d card(s)\t%.1fh\n",
			l.ID, l.Name, l.Kind, state, count[l.ID], hours[l.ID])
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/maestro/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress per domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := stats.Build(cmd.Context(), e.store)
		if err != nil {
			return err
		}

		fmt.Printf("Exercises: %d  Completed: %d  Reviews: %d\n\n",
			report.TotalExercises, report.TotalCompleted, report.TotalReviews)
		for _, ds := range report.Domains {
			fmt.Printf("%-14s %2d/%2d completed  %3d%% mastery  %d reviews\n",
				ds.Domain, ds.Completed, ds.Total, ds.Mastery, ds.Reviews)
		}
		return nil
	},
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the current daily practice streak",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		state, err := e.tracker.StreakFor(cmd.Context(), now())
		if err != nil {
			return err
		}

		if state.CurrentStreakDays == 0 {
			fmt.Println("No active streak. Complete a session today to start one.")
		} else {
			color.New(color.FgGreen).Printf("%d day(s)\n", state.CurrentStreakDays)
		}
		if !state.LastPracticeDate.IsZero() {
			fmt.Printf("Last practice: %s\n", state.LastPracticeDate.Format("2006-01-02"))
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events [exercise-id]",
	Short: "Show the review event log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		exerciseID := ""
		if len(args) == 1 {
			exerciseID = args[0]
		}
		events, err := e.store.ListEvents(cmd.Context(), exerciseID)
		if err != nil {
			return err
		}

		for _, ev := range events {
			fmt.Printf("%s  %-24s q=%d interval=%dd ease=%.2f\n",
				ev.Timestamp.Format("2006-01-02 15:04"), ev.ExerciseID,
				ev.Quality, ev.ResultingInterval, ev.ResultingEase)
		}
		fmt.Printf("%d events\n", len(events))
		return nil
	},
}

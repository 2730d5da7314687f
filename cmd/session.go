package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/maestro/internal/srs"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a practice session over due exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		minutes, _ := cmd.Flags().GetInt("minutes")
		domain, _ := cmd.Flags().GetString("domain")

		rec, selected, err := e.manager.Start(cmd.Context(), minutes, domain, now())
		if err != nil {
			return err
		}

		fmt.Printf("Session %s started (%d minutes)\n", rec.ID, rec.DurationMinutes)
		if len(selected) == 0 {
			fmt.Println("No exercises due; complete the session whenever you like.")
			return nil
		}
		for i, ex := range selected {
			fmt.Printf("%d. %s — %s\n", i+1, ex.ID, ex.Title)
		}
		fmt.Printf("\nRate each attempt with: maestro review %s <exercise-id> <quality 0-5>\n", rec.ID)
		return nil
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <session-id> <exercise-id> <quality>",
	Short: "Record a review attempt inside a session",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		quality, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("quality must be a number 0-5: %w", err)
		}

		ex, err := e.manager.RecordAttempt(cmd.Context(), args[0], args[1], srs.Quality(quality), now())
		if err != nil {
			return err
		}

		if srs.Quality(quality).Lapse() {
			color.New(color.FgYellow).Printf("Lapsed. %s comes back tomorrow.\n", ex.ID)
		} else {
			fmt.Printf("Next review of %s in %d day(s) (ease %.2f)\n",
				ex.ID, ex.Schedule.IntervalDays, ex.Schedule.EaseFactor)
		}
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <session-id>",
	Short: "Complete a practice session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.manager.Complete(cmd.Context(), args[0], now())
		if err != nil {
			return err
		}

		fmt.Printf("Session %s completed: %d of %d exercises attempted\n",
			rec.ID, len(rec.Attempted), len(rec.Selected))

		state := e.tracker.Current()
		if state.CurrentStreakDays > 0 {
			color.New(color.FgGreen).Printf("Streak: %d day(s)\n", state.CurrentStreakDays)
		}
		return nil
	},
}

func init() {
	startCmd.Flags().Int("minutes", 20, "Session length in minutes (15-30)")
	startCmd.Flags().String("domain", "", "Restrict the session to one domain")
}

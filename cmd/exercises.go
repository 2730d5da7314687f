package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/maestro/internal/exercise"
	"github.com/abhisek/maestro/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a single exercise",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		id, _ := cmd.Flags().GetString("id")
		title, _ := cmd.Flags().GetString("title")
		domain, _ := cmd.Flags().GetString("domain")
		difficulty, _ := cmd.Flags().GetInt("difficulty")
		description, _ := cmd.Flags().GetString("description")

		ex := exercise.New(id, title, domain, difficulty, now())
		ex.Description = description
		if err := e.store.Create(cmd.Context(), ex); err != nil {
			return err
		}
		fmt.Printf("Added %s (%s, difficulty %d)\n", ex.ID, ex.Domain, ex.Difficulty)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import exercises from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		exercises, err := exercise.ParseFile(raw, now())
		if err != nil {
			return err
		}

		imported := 0
		for _, ex := range exercises {
			err := e.store.Create(cmd.Context(), ex)
			if errors.Is(err, store.ErrDuplicateID) {
				slog.Warn("skipping existing exercise", "id", ex.ID)
				continue
			}
			if err != nil {
				return err
			}
			imported++
		}
		fmt.Printf("Imported %d of %d exercises\n", imported, len(exercises))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		domain, _ := cmd.Flags().GetString("domain")
		exercises, err := e.store.List(cmd.Context(), domain)
		if err != nil {
			return err
		}

		at := now()
		done := color.New(color.FgGreen)
		for _, ex := range exercises {
			mark := " "
			if ex.Completed {
				mark = done.Sprint("✓")
			}
			dueIn := "due now"
			if !ex.Schedule.IsDue(at) {
				dueIn = fmt.Sprintf("due in %dd", ex.Schedule.DaysUntilDue(at))
			}
			fmt.Printf("[%s] %-24s %-12s d%d reps=%d ease=%.2f %s\n",
				mark, ex.ID, ex.Domain, ex.Difficulty,
				ex.Schedule.Repetitions, ex.Schedule.EaseFactor, dueIn)
		}
		fmt.Printf("%d exercises\n", len(exercises))
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List exercises due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		domain, _ := cmd.Flags().GetString("domain")
		at := now()
		due, err := e.store.ListDue(cmd.Context(), domain, at)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			fmt.Println("Nothing due. Come back later.")
			return nil
		}

		overdue := color.New(color.FgRed)
		for _, ex := range due {
			days := ex.Schedule.OverdueDays(at)
			line := fmt.Sprintf("%-24s %-12s due %s", ex.ID, ex.Domain,
				ex.Schedule.NextDue.Format("2006-01-02"))
			if days >= 1 {
				overdue.Printf("%s (%.0f days overdue)\n", line, days)
			} else {
				fmt.Println(line)
			}
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <exercise-id>",
	Short: "Delete an exercise (review history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().String("id", "", "Exercise identifier")
	addCmd.Flags().String("title", "", "Exercise title")
	addCmd.Flags().String("domain", "", "Domain tag (golang, linux, architecture, ...)")
	addCmd.Flags().Int("difficulty", 1, "Difficulty 1-3")
	addCmd.Flags().String("description", "", "Longer description")
	_ = addCmd.MarkFlagRequired("id")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("domain")

	listCmd.Flags().String("domain", "", "Filter by domain")
	dueCmd.Flags().String("domain", "", "Filter by domain")
}

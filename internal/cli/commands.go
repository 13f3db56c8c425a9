package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"example.com/progression/internal/catalog"
	"example.com/progression/internal/domain"
	"example.com/progression/internal/progress"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show level, experience and training stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(engine *progress.Engine) error {
				printRecord(cmd.OutOrStdout(), engine.CurrentRecord())
				return nil
			})
		},
	}
}

func (a *app) workoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workouts",
		Short: "List the workout catalog grouped by muscle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(engine *progress.Engine) error {
				printWorkouts(cmd.OutOrStdout(), a.catalog, engine.CurrentRecord())
				return nil
			})
		},
	}
}

func (a *app) completeCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "complete <workout-id>",
		Short: "Log a completed workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var day time.Time
			if date != "" {
				parsed, err := time.Parse(domain.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
				}
				day = parsed
			}
			return a.withEngine(cmd, func(engine *progress.Engine) error {
				before := engine.CurrentRecord()
				var (
					rec domain.ProgressionRecord
					err error
				)
				if day.IsZero() {
					rec, err = engine.LogWorkoutCompletion(args[0])
				} else {
					rec, err = engine.LogWorkoutCompletionOn(args[0], day)
				}
				if err != nil {
					return err
				}
				workout, _ := a.catalog.Find(args[0])
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Completed %s: +%d XP\n", workout.Name, workout.XPReward)
				printChanges(out, a.catalog, before, rec)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Completion date (YYYY-MM-DD), defaults to today")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <workout-id>",
		Short: "Log one finished set for partial experience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(engine *progress.Engine) error {
				before := engine.CurrentRecord()
				rec, err := engine.LogSetCompletion(args[0])
				if err != nil {
					return err
				}
				workout, _ := a.catalog.Find(args[0])
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Set logged for %s: +%d XP\n", workout.Name, workout.XPPerSet())
				printChanges(out, a.catalog, before, rec)
				return nil
			})
		},
	}
}

func (a *app) awardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "award <xp>",
		Short: "Grant experience directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, args[0])
			}
			return a.withEngine(cmd, func(engine *progress.Engine) error {
				before := engine.CurrentRecord()
				rec, err := engine.AwardExperience(amount)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Awarded %d XP\n", amount)
				printChanges(out, a.catalog, before, rec)
				return nil
			})
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the starting profile and erase stored progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(engine *progress.Engine) error {
				if _, err := engine.ResetProgress(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Progress reset")
				return nil
			})
		},
	}
}

func (a *app) duelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duels",
		Short: "Show the duel board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, d := range catalog.Duels() {
				state := "behind"
				switch {
				case d.Complete():
					state = "complete"
				case d.Leading():
					state = "leading"
				case d.YourProgress == d.OpponentProgress:
					state = "tied"
				}
				fmt.Fprintf(out, "%s vs %s: %s\n", d.Challenge, d.OpponentName, state)
				fmt.Fprintf(out, "  you %d/%d (%d%%), %s %d/%d (%d%%), %s left\n",
					d.YourProgress, d.Goal, d.Percent(d.YourProgress),
					d.OpponentName, d.OpponentProgress, d.Goal, d.Percent(d.OpponentProgress),
					d.TimeRemaining)
			}
			return nil
		},
	}
}

func printRecord(out io.Writer, rec domain.ProgressionRecord) {
	fmt.Fprintf(out, "Level %d %s\n", rec.Level, rec.Title)
	fmt.Fprintf(out, "XP: %d/%d\n", rec.CurrentXP, rec.XPToNextLevel)
	fmt.Fprintf(out, "Streak: %d days\n", rec.StreakDays)
	fmt.Fprintf(out, "Total workouts: %d\n", rec.TotalWorkouts)
	fmt.Fprintf(out, "Overall progress: %d%%\n", rec.OverallProgress)
	fmt.Fprintf(out, "Stats: strength %d, endurance %d, discipline %d, mobility %d\n",
		rec.Stats.Strength, rec.Stats.Endurance, rec.Stats.Discipline, rec.Stats.Mobility)
	m := rec.MuscleGroups
	fmt.Fprintf(out, "Muscles: chest %d, shoulders %d, back %d, legs %d, arms %d\n",
		m.Chest, m.Shoulders, m.Back, m.Legs, m.Arms)
	if last := rec.LastWorkoutDate(); last != "" {
		fmt.Fprintf(out, "Last workout: %s\n", last)
	}
}

func printWorkouts(out io.Writer, c *catalog.Catalog, rec domain.ProgressionRecord) {
	order, groups := c.GroupByMuscle()
	for _, group := range order {
		fmt.Fprintln(out, group)
		for _, w := range groups[group] {
			marker := "[ ]"
			if rec.IsUnlocked(w.ID) {
				marker = "[x]"
			}
			line := fmt.Sprintf("  %s %-15s %-16s %dx%d  +%d XP", marker, w.ID, w.Name, w.Sets, w.Reps, w.XPReward)
			if !rec.IsUnlocked(w.ID) && w.UnlockCondition != "" {
				line += "  (" + w.UnlockCondition + ")"
			}
			fmt.Fprintln(out, strings.TrimRight(line, " "))
		}
	}
}

func printChanges(out io.Writer, c *catalog.Catalog, before, after domain.ProgressionRecord) {
	if after.Level > before.Level {
		fmt.Fprintf(out, "Level up! Now level %d %s\n", after.Level, after.Title)
	}
	for _, id := range after.UnlockedWorkoutIDs {
		if before.IsUnlocked(id) {
			continue
		}
		if w, ok := c.Find(id); ok {
			fmt.Fprintf(out, "Unlocked %s\n", w.Name)
		}
	}
	fmt.Fprintf(out, "Level %d, XP %d/%d\n", after.Level, after.CurrentXP, after.XPToNextLevel)
}

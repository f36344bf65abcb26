package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/app/engagement"
	"github.com/habitloop/habitloop/internal/domain"
)

func init() {
	rootCmd.AddCommand(checkinCmd, streakCmd, triggerCmd, summaryCmd)
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record today's check-in",
	Args:  cobra.NoArgs,
	RunE:  runCheckin,
}

func runCheckin(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	st, err := d.Engine.RecordCheckIn()
	if errors.Is(err, domain.ErrAlreadyCheckedInToday) {
		fmt.Fprintf(out, "Already checked in today. Current streak: %d days.\n", st.CurrentStreak)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Checked in! Current streak: %d %s (longest %d).\n",
		st.CurrentStreak, plural(st.CurrentStreak, "day", "days"), st.LongestStreak)
	fmt.Fprintf(out, "Next milestone: %d days.\n", engagement.NextMilestone(st.CurrentStreak))

	if c := d.Engine.CheckForRewards(nil); c != nil {
		fmt.Fprintf(out, "Reward: %s (%s)\n", c.Title, c.Value)
		if _, err := d.Engine.ClaimReward(c.ID); err != nil {
			return err
		}
	}
	return nil
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show streak and recent activity",
	Args:  cobra.NoArgs,
	RunE:  runStreak,
}

func runStreak(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	sum := d.Engine.Summary()
	st := sum.Streak

	fmt.Fprintf(out, "Current streak:  %d %s\n", st.CurrentStreak, plural(st.CurrentStreak, "day", "days"))
	fmt.Fprintf(out, "Longest streak:  %d %s\n", st.LongestStreak, plural(st.LongestStreak, "day", "days"))
	if len(st.History) > 0 {
		fmt.Fprintf(out, "Last check-in:   %s\n", humanize.Time(st.History[0].Timestamp))
	} else {
		fmt.Fprintln(out, "Last check-in:   never")
	}
	fmt.Fprintf(out, "Next milestone:  %d days\n", sum.NextMilestone)
	fmt.Fprintf(out, "Last 14 days:    %s\n", activityStrip(sum.RecentActivity))
	return nil
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Show whether a nudge is due right now",
	Args:  cobra.NoArgs,
	RunE:  runTrigger,
}

func runTrigger(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	dec := d.Engine.EvaluateTrigger()
	if !dec.ShouldTrigger {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing due. Keep it up!")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", dec.Kind, dec.Message)
	return nil
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show streak, level and challenge progress",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	sum := d.Engine.Summary()
	fmt.Fprintf(out, "Streak: %d (longest %d), next milestone %d\n",
		sum.Streak.CurrentStreak, sum.Streak.LongestStreak, sum.NextMilestone)
	fmt.Fprintf(out, "Level %d: %s XP, %s to next (%.0f%%)\n",
		sum.Level.Level, humanize.Comma(sum.Level.CurrentXP), humanize.Comma(sum.Level.ToNextLevel), sum.Level.ProgressPct)
	for _, cat := range []domain.ChallengeCategory{
		domain.CategoryStrength, domain.CategoryCardio, domain.CategoryFlexibility, domain.CategoryMindfulness,
	} {
		fmt.Fprintf(out, "  %-12s %s XP\n", cat, humanize.Comma(sum.CategoryXP[cat]))
	}
	if sum.Trigger.ShouldTrigger {
		fmt.Fprintf(out, "Nudge: %s\n", sum.Trigger.Message)
	}
	return nil
}

// activityStrip renders days oldest first, "#" for a check-in.
func activityStrip(days []bool) string {
	var b strings.Builder
	for _, ok := range days {
		if ok {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

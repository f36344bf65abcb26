package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/domain"
)

func init() {
	challengeListCmd.Flags().StringVarP(&challengeCategory, "category", "c", "", "Only list this category")

	challengeCmd.AddCommand(challengeListCmd, challengeStartCmd, challengeCompleteCmd)
	rootCmd.AddCommand(challengeCmd, levelCmd)
}

var challengeCategory string

var challengeCmd = &cobra.Command{
	Use:     "challenge",
	Aliases: []string{"challenges"},
	Short:   "Browse and progress through challenges",
}

var challengeListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List challenges with their status",
	Args:    cobra.NoArgs,
	RunE:    runChallengeList,
}

func runChallengeList(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	views := d.Engine.ListChallenges(domain.ChallengeCategory(challengeCategory))
	if len(views) == 0 {
		return fmt.Errorf("no challenges in category %q", challengeCategory)
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tCATEGORY\tNAME\tXP\tUNLOCKS AT\tSTATUS")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			v.ID, v.Category, v.Name, v.XPReward, v.UnlockThresholdXP, v.Status)
	}
	return w.Flush()
}

var challengeStartCmd = &cobra.Command{
	Use:   "start ID",
	Short: "Start an available challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengeStart,
}

func runChallengeStart(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	v, err := d.Engine.StartChallenge(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started %q: %s\n", v.Name, v.Description)
	return nil
}

var challengeCompleteCmd = &cobra.Command{
	Use:   "complete ID",
	Short: "Complete an active challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengeComplete,
}

func runChallengeComplete(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	v, err := d.Engine.CompleteChallenge(args[0])
	if err != nil {
		return err
	}
	lvl := d.Engine.Level()
	fmt.Fprintf(cmd.OutOrStdout(), "Completed %q: +%d %s XP. Level %d (%s XP).\n",
		v.Name, v.XPReward, v.Category, lvl.Level, humanize.Comma(lvl.CurrentXP))
	return nil
}

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show your overall level",
	Args:  cobra.NoArgs,
	RunE:  runLevel,
}

func runLevel(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	lvl := d.Engine.Level()
	fmt.Fprintf(cmd.OutOrStdout(), "Level %d: %s XP, %s to next level (%.0f%%)\n",
		lvl.Level, humanize.Comma(lvl.CurrentXP), humanize.Comma(lvl.ToNextLevel), lvl.ProgressPct)
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rewardHistoryCmd.Flags().IntVarP(&rewardLimit, "limit", "n", 10, "Number of claims to show (0 for all)")
	rewardCheckCmd.Flags().StringSliceVar(&rewardInterests, "interest", nil, "Interests to personalize with (defaults to saved interests)")
	rewardClaimCmd.Flags().StringSliceVar(&rewardInterests, "interest", nil, "Interests to personalize with (defaults to saved interests)")

	rewardCmd.AddCommand(rewardCheckCmd, rewardClaimCmd, rewardHistoryCmd)
	rootCmd.AddCommand(rewardCmd, interestsCmd)
}

var (
	rewardLimit     int
	rewardInterests []string
)

var rewardCmd = &cobra.Command{
	Use:     "reward",
	Aliases: []string{"rewards"},
	Short:   "Check, claim and review rewards",
}

var rewardCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the reward you would get right now",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runReward(cmd, false) },
}

var rewardClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Draw a reward and claim it",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, args []string) error { return runReward(cmd, true) },
}

// runReward draws a reward; offers live only for the process, so claiming
// happens in the same invocation.
func runReward(cmd *cobra.Command, claim bool) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	out := cmd.OutOrStdout()
	c := d.Engine.CheckForRewards(rewardInterests)
	if c == nil {
		fmt.Fprintln(out, "No reward available right now.")
		return nil
	}
	fmt.Fprintf(out, "%s [%s]: %s\n  %s\n", c.Title, c.Type, c.Value, c.Description)
	if !claim {
		return nil
	}

	entry, err := d.Engine.ClaimReward(c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Claimed (%s).\n", entry.ID)
	return nil
}

var rewardHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List claimed rewards, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRewardHistory,
}

func runRewardHistory(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	claims := d.Engine.ClaimHistory(rewardLimit)
	if len(claims) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rewards claimed yet.")
		return nil
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "WHEN\tTYPE\tREWARD")
	for _, c := range claims {
		fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.Time(c.ClaimedAt), c.Type, c.Title)
	}
	return w.Flush()
}

var interestsCmd = &cobra.Command{
	Use:   "interests [INTEREST...]",
	Short: "Show or set interests used to personalize rewards",
	RunE:  runInterests,
}

func runInterests(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	interests := d.Engine.Interests()
	if len(args) > 0 {
		if interests, err = d.Engine.SetInterests(args); err != nil {
			return err
		}
	}
	if len(interests) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No interests set. Try 'habitloop interests strength cardio'.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Interests: %s\n", strings.Join(interests, ", "))
	return nil
}

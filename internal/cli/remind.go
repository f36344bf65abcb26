package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/habitloop/habitloop/internal/domain"
)

func init() {
	remindAddCmd.Flags().StringVar(&remindDays, "days", "daily", "Days: daily, weekdays, weekends or mon,wed,fri")
	remindAddCmd.Flags().StringVar(&remindDesc, "desc", "", "Optional description")
	remindAddCmd.Flags().BoolVar(&remindDisabled, "disabled", false, "Create the reminder disabled")

	remindCmd.AddCommand(remindListCmd, remindAddCmd, remindRmCmd, remindToggleCmd)
	rootCmd.AddCommand(remindCmd)
}

var (
	remindDays     string
	remindDesc     string
	remindDisabled bool
)

var remindCmd = &cobra.Command{
	Use:     "remind",
	Aliases: []string{"reminders"},
	Short:   "Manage recurring reminders",
}

var remindListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List reminders",
	Args:    cobra.NoArgs,
	RunE:    runRemindList,
}

func runRemindList(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	rems := d.Engine.ListReminders()
	if len(rems) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No reminders. Run 'habitloop remind add HH:MM TITLE' to create one.")
		return nil
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTIME\tDAYS\tENABLED\tTITLE")
	for _, r := range rems {
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", r.ID, r.Time, formatDays(r.Days), r.Enabled, r.Title)
	}
	return w.Flush()
}

var remindAddCmd = &cobra.Command{
	Use:   "add HH:MM TITLE",
	Short: "Create a reminder",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemindAdd,
}

func runRemindAdd(cmd *cobra.Command, args []string) error {
	days, ok := parseDays(remindDays)
	if !ok {
		return fmt.Errorf("invalid --days %q", remindDays)
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	rem, err := d.Engine.SaveReminder(domain.Reminder{
		Title:       args[1],
		Description: remindDesc,
		Time:        args[0],
		Days:        days,
		Enabled:     !remindDisabled,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder %d set for %s (%s).\n", rem.ID, rem.Time, formatDays(rem.Days))
	return nil
}

var remindRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a reminder",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemindRm,
}

func runRemindRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reminder id %q", args[0])
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Engine.DeleteReminder(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder %d.\n", id)
	return nil
}

var remindToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Enable or disable a reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemindToggle,
}

func runRemindToggle(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reminder id %q", args[0])
	}

	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	rem, err := d.Engine.ToggleReminder(id)
	if err != nil {
		return err
	}
	state := "disabled"
	if rem.Enabled {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder %d %s.\n", id, state)
	return nil
}

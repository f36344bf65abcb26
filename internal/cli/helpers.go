package cli

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/habitloop/habitloop/internal/daemon"
)

// openDaemon opens the local store with console logging off.
var openDaemon = func() (*daemon.Daemon, error) {
	return daemon.New(daemon.Options{Quiet: true})
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// formatDays renders weekday numbers as "Mon,Wed,Fri".
func formatDays(days []int) string {
	if len(days) == 7 {
		return "every day"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdayNames) {
			names = append(names, weekdayNames[d])
		}
	}
	return strings.Join(names, ",")
}

// parseDays accepts "mon,wed,fri", "1,3,5", "weekdays", "weekends" or "daily".
func parseDays(s string) ([]int, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "everyday", "all":
		return []int{0, 1, 2, 3, 4, 5, 6}, true
	case "weekdays":
		return []int{1, 2, 3, 4, 5}, true
	case "weekends":
		return []int{0, 6}, true
	}

	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) == 1 && part[0] >= '0' && part[0] <= '6' {
			days = append(days, int(part[0]-'0'))
			continue
		}
		found := false
		for i, name := range weekdayNames {
			if strings.HasPrefix(part, strings.ToLower(name)) {
				days = append(days, i)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return days, len(days) > 0
}

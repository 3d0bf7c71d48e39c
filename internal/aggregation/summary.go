package aggregation

import (
	"fmt"
	"strings"
)

// SummaryText renders the narrative stored alongside a weekly summary.
func SummaryText(week Week) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This week the team completed %s, created %s and held %s.",
		plural(week.TasksCompleted, "task"),
		plural(week.TasksCreated, "task"),
		plural(week.MeetingsHeld, "meeting"))
	if len(week.TopPriorityText) > 0 {
		fmt.Fprintf(&b, " Focus next week: %s.", strings.Join(week.TopPriorityText, ", "))
	}
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

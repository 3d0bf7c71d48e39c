// Package aggregation computes the read-only rollups shown on the dashboard,
// project boards and meetings pages. Every function is a pure projection over
// the task and meeting sets handed in by the caller.
package aggregation

import (
	"sort"
	"time"

	"github.com/example/command-center/internal/calendar"
	"github.com/example/command-center/internal/domain"
)

const (
	// TodayLimit caps the dashboard's today list.
	TodayLimit = 10
	// UpcomingLimit caps the dashboard's upcoming list.
	UpcomingLimit = 10
	// WeekMeetingsLimit caps the dashboard's meetings of the week.
	WeekMeetingsLimit = 5
	// MeetingsPageLimit caps the meetings page query.
	MeetingsPageLimit = 50
	// TopPrioritiesLimit caps the open tasks listed on a weekly summary.
	TopPrioritiesLimit = 3
)

// Task carries the task attributes the views depend on.
type Task struct {
	ID          string
	Title       string
	Priority    domain.Priority
	Status      domain.TaskStatus
	DueDate     *time.Time
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Meeting carries the meeting attributes the views depend on.
type Meeting struct {
	ID    string
	Start time.Time
}

// Stats holds whole-workspace task counts.
type Stats struct {
	TotalTasks      int
	CompletedTasks  int
	InProgressTasks int
	OverdueTasks    int
	CompletionRate  int
}

// Dashboard lists entity identifiers in display order together with the task stats.
type Dashboard struct {
	TodayTaskIDs    []string
	UpcomingTaskIDs []string
	MeetingIDs      []string
	Stats           Stats
}

// ComputeDashboard builds the dashboard for the instant now.
func ComputeDashboard(cal *calendar.Calendar, tasks []Task, meetings []Meeting, now time.Time) Dashboard {
	today := cal.Day(now)
	tomorrow := cal.StartOfTomorrow(now)

	var todays, upcoming []Task
	for _, task := range tasks {
		if task.Status == domain.StatusInProgress || (task.DueDate != nil && today.Contains(*task.DueDate)) {
			todays = append(todays, task)
		}
		if task.Status != domain.StatusDone && task.DueDate != nil && !task.DueDate.Before(tomorrow) {
			upcoming = append(upcoming, task)
		}
	}
	SortByPriority(todays)
	SortByPriority(upcoming)

	week := cal.Week(now)
	var weekMeetings []Meeting
	for _, meeting := range meetings {
		if week.Contains(meeting.Start) {
			weekMeetings = append(weekMeetings, meeting)
		}
	}
	sortMeetings(weekMeetings, true)

	return Dashboard{
		TodayTaskIDs:    taskIDs(todays, TodayLimit),
		UpcomingTaskIDs: taskIDs(upcoming, UpcomingLimit),
		MeetingIDs:      meetingIDs(weekMeetings, WeekMeetingsLimit),
		Stats:           ComputeStats(cal, tasks, now),
	}
}

// ComputeStats counts the workspace's tasks. Overdue tasks are open tasks due before today.
func ComputeStats(cal *calendar.Calendar, tasks []Task, now time.Time) Stats {
	startOfToday := cal.StartOfDay(now)
	stats := Stats{TotalTasks: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case domain.StatusDone:
			stats.CompletedTasks++
		case domain.StatusInProgress:
			stats.InProgressTasks++
		}
		if task.Status != domain.StatusDone && task.DueDate != nil && task.DueDate.Before(startOfToday) {
			stats.OverdueTasks++
		}
	}
	stats.CompletionRate = Percentage(stats.CompletedTasks, stats.TotalTasks)
	return stats
}

// ComparePriority orders tasks by priority descending, then due date ascending
// with missing due dates last.
func ComparePriority(a, b Task) int {
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		if ra > rb {
			return -1
		}
		return 1
	}
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

// SortByPriority sorts tasks in place using ComparePriority. Ties keep their input order.
func SortByPriority(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return ComparePriority(tasks[i], tasks[j]) < 0
	})
}

// Percentage returns 100*part/total rounded half up, or 0 when total is not positive.
func Percentage(part, total int) int {
	if total <= 0 || part <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}

// Column is one kanban column.
type Column struct {
	Status  domain.TaskStatus
	TaskIDs []string
}

// Board groups a project's tasks by status.
type Board struct {
	Columns    []Column
	Total      int
	Done       int
	Completion int
}

// ComputeBoard places tasks into the four fixed columns, keeping input order within each.
func ComputeBoard(tasks []Task) Board {
	board := Board{Columns: make([]Column, len(domain.Statuses))}
	for i, status := range domain.Statuses {
		board.Columns[i] = Column{Status: status, TaskIDs: []string{}}
	}
	for _, task := range tasks {
		idx := task.Status.Column()
		if idx < 0 {
			continue
		}
		board.Columns[idx].TaskIDs = append(board.Columns[idx].TaskIDs, task.ID)
		board.Total++
		if task.Status == domain.StatusDone {
			board.Done++
		}
	}
	board.Completion = Percentage(board.Done, board.Total)
	return board
}

// Progress summarises a project's task completion.
type Progress struct {
	Total   int
	Done    int
	Percent int
}

// ComputeProgress counts done tasks against all tasks.
func ComputeProgress(tasks []Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, task := range tasks {
		if task.Status == domain.StatusDone {
			p.Done++
		}
	}
	p.Percent = Percentage(p.Done, p.Total)
	return p
}

// MeetingPartition splits meetings around an instant.
type MeetingPartition struct {
	UpcomingIDs []string
	PastIDs     []string
}

// PartitionMeetings places meetings starting at or after now in Upcoming, soonest
// first, and the rest in Past, most recent first.
func PartitionMeetings(meetings []Meeting, now time.Time) MeetingPartition {
	var upcoming, past []Meeting
	for _, meeting := range meetings {
		if meeting.Start.Before(now) {
			past = append(past, meeting)
		} else {
			upcoming = append(upcoming, meeting)
		}
	}
	sortMeetings(upcoming, true)
	sortMeetings(past, false)
	return MeetingPartition{
		UpcomingIDs: meetingIDs(upcoming, 0),
		PastIDs:     meetingIDs(past, 0),
	}
}

// Week holds the counts behind a weekly summary.
type Week struct {
	Window          calendar.Window
	TasksCompleted  int
	TasksCreated    int
	MeetingsHeld    int
	TopPriorityIDs  []string
	TopPriorityText []string
}

// ComputeWeek counts activity in the week containing now. Meetings count as held
// once they have started.
func ComputeWeek(cal *calendar.Calendar, tasks []Task, meetings []Meeting, now time.Time) Week {
	week := Week{Window: cal.Week(now)}

	var open []Task
	for _, task := range tasks {
		if task.CompletedAt != nil && week.Window.Contains(*task.CompletedAt) {
			week.TasksCompleted++
		}
		if week.Window.Contains(task.CreatedAt) {
			week.TasksCreated++
		}
		if task.Status != domain.StatusDone {
			open = append(open, task)
		}
	}
	for _, meeting := range meetings {
		if week.Window.Contains(meeting.Start) && meeting.Start.Before(now) {
			week.MeetingsHeld++
		}
	}

	SortByPriority(open)
	if len(open) > TopPrioritiesLimit {
		open = open[:TopPrioritiesLimit]
	}
	week.TopPriorityIDs = make([]string, 0, len(open))
	week.TopPriorityText = make([]string, 0, len(open))
	for _, task := range open {
		week.TopPriorityIDs = append(week.TopPriorityIDs, task.ID)
		week.TopPriorityText = append(week.TopPriorityText, task.Title)
	}
	return week
}

func sortMeetings(meetings []Meeting, ascending bool) {
	sort.SliceStable(meetings, func(i, j int) bool {
		if ascending {
			return meetings[i].Start.Before(meetings[j].Start)
		}
		return meetings[i].Start.After(meetings[j].Start)
	})
}

func taskIDs(tasks []Task, limit int) []string {
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func meetingIDs(meetings []Meeting, limit int) []string {
	if limit > 0 && len(meetings) > limit {
		meetings = meetings[:limit]
	}
	ids := make([]string, 0, len(meetings))
	for _, meeting := range meetings {
		ids = append(ids, meeting.ID)
	}
	return ids
}

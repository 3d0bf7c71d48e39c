// Package domain defines the closed value sets shared by every layer of the
// command center: task priorities and statuses, workspace roles and meeting
// participant roles.
package domain

import "strings"

// Priority ranks the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists every priority from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority converts a caller supplied value into a Priority. Only the
// exact upper-case names are accepted.
func ParsePriority(value string) (Priority, bool) {
	p := Priority(value)
	return p, p.Valid()
}

// Valid reports whether p is one of the declared priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities so that URGENT > HIGH > MEDIUM > LOW. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// TaskStatus is the kanban column a task sits in.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "BACKLOG"
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Statuses lists the statuses in board column order.
var Statuses = []TaskStatus{StatusBacklog, StatusTodo, StatusInProgress, StatusDone}

// ParseTaskStatus converts a caller supplied value into a TaskStatus. Only the
// exact upper-case names are accepted.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	s := TaskStatus(value)
	return s, s.Valid()
}

// Valid reports whether s is one of the declared statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Column returns the zero based board column for s, or -1 for unknown values.
func (s TaskStatus) Column() int {
	switch s {
	case StatusBacklog:
		return 0
	case StatusTodo:
		return 1
	case StatusInProgress:
		return 2
	case StatusDone:
		return 3
	}
	return -1
}

// WorkspaceRole is the role a user holds within a workspace.
type WorkspaceRole string

const (
	RoleOwner  WorkspaceRole = "owner"
	RoleMember WorkspaceRole = "member"
)

// NormalizeWorkspaceRole maps stored values onto a known role, defaulting to member.
func NormalizeWorkspaceRole(value string) WorkspaceRole {
	switch WorkspaceRole(strings.ToLower(strings.TrimSpace(value))) {
	case RoleOwner:
		return RoleOwner
	default:
		return RoleMember
	}
}

// ParticipantRole is the role a user plays in a meeting.
type ParticipantRole string

const (
	ParticipantOrganizer ParticipantRole = "organizer"
	ParticipantAttendee  ParticipantRole = "attendee"
)

// NormalizeParticipantRole maps stored values onto a known role, defaulting to attendee.
func NormalizeParticipantRole(value string) ParticipantRole {
	if ParticipantRole(strings.ToLower(strings.TrimSpace(value))) == ParticipantOrganizer {
		return ParticipantOrganizer
	}
	return ParticipantAttendee
}

// ProjectStatusActive is the default status of a newly created project.
const ProjectStatusActive = "active"

package domain

import "testing"

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Priority
		ok    bool
	}{
		{input: "URGENT", want: PriorityUrgent, ok: true},
		{input: "HIGH", want: PriorityHigh, ok: true},
		{input: "MEDIUM", want: PriorityMedium, ok: true},
		{input: "LOW", want: PriorityLow, ok: true},
		{input: "urgent", ok: false},
		{input: " HIGH ", ok: false},
		{input: "critical", ok: false},
		{input: "", ok: false},
	}

	for _, tc := range tests {
		got, ok := ParsePriority(tc.input)
		if ok != tc.ok {
			t.Fatalf("ParsePriority(%q) ok = %v, want %v", tc.input, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("ParsePriority(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	t.Parallel()

	for i := 1; i < len(Priorities); i++ {
		if Priorities[i].Rank() <= Priorities[i-1].Rank() {
			t.Fatalf("expected %s to outrank %s", Priorities[i], Priorities[i-1])
		}
	}
	if Priority("bogus").Rank() != 0 {
		t.Fatalf("expected unknown priority to rank lowest")
	}
}

func TestTaskStatusColumns(t *testing.T) {
	t.Parallel()

	for i, status := range Statuses {
		if status.Column() != i {
			t.Fatalf("expected %s in column %d, got %d", status, i, status.Column())
		}
	}
	if got, ok := ParseTaskStatus("IN_PROGRESS"); !ok || got != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS to parse, got %q %v", got, ok)
	}
	if _, ok := ParseTaskStatus("in_progress"); ok {
		t.Fatalf("expected lowercase status to be rejected")
	}
	if TaskStatus("ARCHIVED").Column() != -1 {
		t.Fatalf("expected unknown status to have no column")
	}
}

func TestNormalizeRoles(t *testing.T) {
	t.Parallel()

	if NormalizeWorkspaceRole("OWNER") != RoleOwner {
		t.Fatalf("expected owner role")
	}
	if NormalizeWorkspaceRole("admin") != RoleMember {
		t.Fatalf("expected unknown workspace role to fall back to member")
	}
	if NormalizeParticipantRole("organizer") != ParticipantOrganizer {
		t.Fatalf("expected organizer role")
	}
	if NormalizeParticipantRole("") != ParticipantAttendee {
		t.Fatalf("expected attendee fallback")
	}
}

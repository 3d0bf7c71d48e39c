package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/command-center/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository.
type MeetingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMeetingRepository creates a meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const meetingColumns = `id, workspace_id, title, description, start_time, end_time, notes, created_at, updated_at`

// CreateMeeting inserts the meeting and its participants in one transaction.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.WorkspaceID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO meetings (`+meetingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			meeting.ID, meeting.WorkspaceID, meeting.Title, nullableString(meeting.Description),
			formatTime(meeting.StartTime), nullableTime(meeting.EndTime), nullableString(meeting.Notes),
			formatTime(meeting.CreatedAt), formatTime(meeting.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertParticipants(ctx, tx, meeting.ID, meeting.Participants)
	})
}

// UpdateMeeting updates meeting columns and, when Participants is non-nil,
// replaces the participant set in the same transaction.
func (r *MeetingRepository) UpdateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE meetings
			SET title = ?, description = ?, start_time = ?, end_time = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			meeting.Title, nullableString(meeting.Description), formatTime(meeting.StartTime),
			nullableTime(meeting.EndTime), nullableString(meeting.Notes), formatTime(meeting.UpdatedAt),
			meeting.ID,
		)
		if err := requireAffected(result, r.mapper.MapError(err)); err != nil {
			return err
		}
		if meeting.Participants == nil {
			return nil
		}
		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, meeting.ID); err != nil {
			return r.mapper.MapError(err)
		}
		return r.insertParticipants(ctx, tx, meeting.ID, meeting.Participants)
	})
}

// GetMeeting retrieves a meeting and its participants.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	meeting, err := r.scanMeeting(r.helper.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id))
	if err != nil {
		return persistence.Meeting{}, err
	}
	participants, err := r.loadParticipants(ctx, []string{id})
	if err != nil {
		return persistence.Meeting{}, err
	}
	meeting.Participants = participants[id]
	return meeting, nil
}

// ListMeetings lists a workspace's meetings by start time, newest first unless
// AscendingTime is set.
func (r *MeetingRepository) ListMeetings(ctx context.Context, filter persistence.MeetingFilter) ([]persistence.Meeting, error) {
	conditions := []string{"workspace_id = ?"}
	args := []any{filter.WorkspaceID}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE ` + strings.Join(conditions, " AND ")
	if filter.AscendingTime {
		query += ` ORDER BY start_time ASC, id ASC`
	} else {
		query += ` ORDER BY start_time DESC, id ASC`
	}
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	var ids []string
	for rows.Next() {
		meeting, err := r.scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
		ids = append(ids, meeting.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	rows.Close()

	if len(ids) == 0 {
		return meetings, nil
	}
	participants, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range meetings {
		meetings[i].Participants = participants[meetings[i].ID]
	}
	return meetings, nil
}

// DeleteMeeting removes the meeting and its participants. Follow-up tasks keep
// existing with meeting_id cleared.
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := r.helper.ExecTx(ctx, tx, `UPDATE tasks SET meeting_id = NULL WHERE meeting_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM meetings WHERE id = ?`, id)
		return requireAffected(result, r.mapper.MapError(err))
	})
}

func (r *MeetingRepository) insertParticipants(ctx context.Context, tx *sql.Tx, meetingID string, participants []persistence.Participant) error {
	seen := make(map[string]struct{}, len(participants))
	for _, participant := range participants {
		userID := strings.TrimSpace(participant.UserID)
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		_, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO meeting_participants (meeting_id, user_id, role) VALUES (?, ?, ?)`,
			meetingID, userID, participant.Role)
		if err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

// loadParticipants returns participants keyed by meeting ID, organizers first.
func (r *MeetingRepository) loadParticipants(ctx context.Context, meetingIDs []string) (map[string][]persistence.Participant, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(meetingIDs)), ",")
	args := make([]any, len(meetingIDs))
	for i, id := range meetingIDs {
		args[i] = id
	}

	rows, err := r.helper.Query(ctx, `
		SELECT meeting_id, user_id, role
		FROM meeting_participants
		WHERE meeting_id IN (`+placeholders+`)
		ORDER BY meeting_id, CASE role WHEN 'organizer' THEN 0 ELSE 1 END, user_id`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	participants := make(map[string][]persistence.Participant, len(meetingIDs))
	for rows.Next() {
		var meetingID string
		var participant persistence.Participant
		if err := rows.Scan(&meetingID, &participant.UserID, &participant.Role); err != nil {
			return nil, r.mapper.MapError(err)
		}
		participants[meetingID] = append(participants[meetingID], participant)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return participants, nil
}

func (r *MeetingRepository) scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var meeting persistence.Meeting
	var description, endTime, notes sql.NullString
	var startTime, createdAt, updatedAt string
	err := row.Scan(&meeting.ID, &meeting.WorkspaceID, &meeting.Title, &description,
		&startTime, &endTime, &notes, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	meeting.Description = stringPtr(description)
	meeting.Notes = stringPtr(notes)
	if meeting.StartTime, err = parseTime("start_time", startTime); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.EndTime, err = parseNullableTime("end_time", endTime); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Meeting{}, err
	}
	return meeting, nil
}

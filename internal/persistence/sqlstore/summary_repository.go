package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/command-center/internal/persistence"
)

// SummaryRepository implements persistence.SummaryRepository.
type SummaryRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSummaryRepository creates a weekly summary repository.
func NewSummaryRepository(pool *ConnectionPool) *SummaryRepository {
	return &SummaryRepository{pool: pool, helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

const summaryColumns = `id, workspace_id, week_start_date, week_end_date, summary,
	tasks_completed, tasks_created, meetings_held, top_priorities, generated_at`

// CreateSummary appends a weekly summary. Top priorities are stored as a JSON array.
func (r *SummaryRepository) CreateSummary(ctx context.Context, summary persistence.WeeklySummary) error {
	if summary.ID == "" || summary.WorkspaceID == "" {
		return persistence.ErrConstraintViolation
	}
	priorities := summary.TopPriorities
	if priorities == nil {
		priorities = []string{}
	}
	encoded, err := json.Marshal(priorities)
	if err != nil {
		return fmt.Errorf("failed to encode top_priorities: %w", err)
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO weekly_summaries (`+summaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.WorkspaceID, formatTime(summary.WeekStartDate), formatTime(summary.WeekEndDate),
		summary.Summary, summary.TasksCompleted, summary.TasksCreated, summary.MeetingsHeld,
		string(encoded), formatTime(summary.GeneratedAt),
	)
	return r.mapper.MapError(err)
}

// LatestSummary returns the most recently generated summary of the workspace.
func (r *SummaryRepository) LatestSummary(ctx context.Context, workspaceID string) (persistence.WeeklySummary, error) {
	summaries, err := r.ListSummaries(ctx, workspaceID, 1)
	if err != nil {
		return persistence.WeeklySummary{}, err
	}
	if len(summaries) == 0 {
		return persistence.WeeklySummary{}, persistence.ErrNotFound
	}
	return summaries[0], nil
}

// ListSummaries returns summaries newest first. A non-positive limit returns all.
func (r *SummaryRepository) ListSummaries(ctx context.Context, workspaceID string, limit int) ([]persistence.WeeklySummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM weekly_summaries WHERE workspace_id = ? ORDER BY generated_at DESC, id DESC`
	args := []any{workspaceID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var summaries []persistence.WeeklySummary
	for rows.Next() {
		summary, err := r.scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return summaries, nil
}

func (r *SummaryRepository) scanSummary(row rowScanner) (persistence.WeeklySummary, error) {
	var summary persistence.WeeklySummary
	var weekStart, weekEnd, priorities, generatedAt string
	err := row.Scan(&summary.ID, &summary.WorkspaceID, &weekStart, &weekEnd, &summary.Summary,
		&summary.TasksCompleted, &summary.TasksCreated, &summary.MeetingsHeld, &priorities, &generatedAt)
	if err != nil {
		return persistence.WeeklySummary{}, r.mapper.MapError(err)
	}
	if err := json.Unmarshal([]byte(priorities), &summary.TopPriorities); err != nil {
		return persistence.WeeklySummary{}, fmt.Errorf("failed to decode top_priorities: %w", err)
	}
	if summary.WeekStartDate, err = parseTime("week_start_date", weekStart); err != nil {
		return persistence.WeeklySummary{}, err
	}
	if summary.WeekEndDate, err = parseTime("week_end_date", weekEnd); err != nil {
		return persistence.WeeklySummary{}, err
	}
	if summary.GeneratedAt, err = parseTime("generated_at", generatedAt); err != nil {
		return persistence.WeeklySummary{}, err
	}
	return summary, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/daily-status/internal/domain"
)

// UpdateFilter narrows an update listing. Nil and empty fields do not filter.
type UpdateFilter struct {
	EmployeeEmail *string
	TeamIDs       []string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// UpdateRepository encapsulates daily update persistence.
type UpdateRepository interface {
	Create(ctx context.Context, update *domain.Update) error
	Update(ctx context.Context, update *domain.Update) error
	GetByID(ctx context.Context, id string) (*domain.Update, error)
	ListWithFilter(ctx context.Context, filter UpdateFilter) ([]domain.Update, error)
}

type updateRepository struct {
	pool *pgxpool.Pool
}

// NewUpdateRepository instantiates repository.
func NewUpdateRepository(pool *pgxpool.Pool) UpdateRepository {
	return &updateRepository{pool: pool}
}

const updateSelect = `
        SELECT u.id, u.employee_email, u.employee_name, u.team_id::text, COALESCE(t.team_name, ''),
               u.created_at, u.tasks_completed, u.story_points, u.priority, u.status,
               u.start_date, u.end_date, u.blocker_type, u.blocker_description,
               u.expected_resolution_date, u.additional_notes
        FROM updates u
        LEFT JOIN teams t ON t.id = u.team_id`

func (r *updateRepository) Create(ctx context.Context, update *domain.Update) error {
	const query = `
        INSERT INTO updates (employee_email, employee_name, team_id, tasks_completed, story_points, priority, status,
            start_date, end_date, blocker_type, blocker_description, expected_resolution_date, additional_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		domain.NormalizeEmail(update.EmployeeEmail),
		update.EmployeeName,
		update.TeamID,
		update.TasksCompleted,
		update.StoryPoints,
		update.Priority,
		update.Status,
		update.StartDate,
		update.EndDate,
		update.BlockerType,
		update.BlockerDescription,
		update.ExpectedResolutionDate,
		update.AdditionalNotes,
	).Scan(&update.ID, &update.CreatedAt)
}

// Update rewrites the editable fields. Owner, team and created_at never change.
func (r *updateRepository) Update(ctx context.Context, update *domain.Update) error {
	const query = `
        UPDATE updates SET tasks_completed=$1, story_points=$2, priority=$3, status=$4, start_date=$5, end_date=$6,
            blocker_type=$7, blocker_description=$8, expected_resolution_date=$9, additional_notes=$10
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		update.TasksCompleted,
		update.StoryPoints,
		update.Priority,
		update.Status,
		update.StartDate,
		update.EndDate,
		update.BlockerType,
		update.BlockerDescription,
		update.ExpectedResolutionDate,
		update.AdditionalNotes,
		update.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *updateRepository) GetByID(ctx context.Context, id string) (*domain.Update, error) {
	row := r.pool.QueryRow(ctx, updateSelect+` WHERE u.id=$1`, id)
	update, err := scanUpdate(row)
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (r *updateRepository) ListWithFilter(ctx context.Context, filter UpdateFilter) ([]domain.Update, error) {
	query, args := buildUpdateListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Update{}
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *update)
	}
	return result, rows.Err()
}

func buildUpdateListQuery(filter UpdateFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EmployeeEmail != nil {
		args = append(args, domain.NormalizeEmail(*filter.EmployeeEmail))
		clauses = append(clauses, fmt.Sprintf("lower(u.employee_email)=$%d", len(args)))
	}
	if len(filter.TeamIDs) > 0 {
		placeholders := make([]string, len(filter.TeamIDs))
		for i, id := range filter.TeamIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("u.team_id::text IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("u.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("u.created_at <= $%d", len(args)))
	}

	query := updateSelect + " WHERE " + strings.Join(clauses, " AND ") + " ORDER BY u.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func scanUpdate(row pgx.Row) (*domain.Update, error) {
	var update domain.Update
	if err := row.Scan(
		&update.ID,
		&update.EmployeeEmail,
		&update.EmployeeName,
		&update.TeamID,
		&update.TeamName,
		&update.CreatedAt,
		&update.TasksCompleted,
		&update.StoryPoints,
		&update.Priority,
		&update.Status,
		&update.StartDate,
		&update.EndDate,
		&update.BlockerType,
		&update.BlockerDescription,
		&update.ExpectedResolutionDate,
		&update.AdditionalNotes,
	); err != nil {
		return nil, err
	}
	return &update, nil
}

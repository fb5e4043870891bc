package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/daily-status/internal/domain"
)

// TeamRepository manages persistence for teams and their members.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListAll(ctx context.Context) ([]domain.Team, error)
	ListByManagerEmail(ctx context.Context, managerEmail string) ([]domain.Team, error)
	ListByMemberEmail(ctx context.Context, employeeEmail string) ([]domain.Team, error)
	AddMember(ctx context.Context, member *domain.TeamMember) error
	ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

const teamColumns = `t.id, t.team_name, t.manager_email, t.manager_name, t.created_at`

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (team_name, manager_email, manager_name)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		team.TeamName,
		domain.NormalizeEmail(team.ManagerEmail),
		team.ManagerName,
	).Scan(&team.ID, &team.CreatedAt)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	var team domain.Team
	if err := r.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams t WHERE t.id=$1`, id).Scan(
		&team.ID,
		&team.TeamName,
		&team.ManagerEmail,
		&team.ManagerName,
		&team.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) ListAll(ctx context.Context) ([]domain.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams t ORDER BY t.team_name`)
}

func (r *teamRepository) ListByManagerEmail(ctx context.Context, managerEmail string) ([]domain.Team, error) {
	return r.list(ctx, `SELECT `+teamColumns+` FROM teams t WHERE lower(t.manager_email)=$1 ORDER BY t.team_name`,
		domain.NormalizeEmail(managerEmail))
}

func (r *teamRepository) ListByMemberEmail(ctx context.Context, employeeEmail string) ([]domain.Team, error) {
	const query = `SELECT ` + teamColumns + `
        FROM teams t
        JOIN team_members m ON m.team_id = t.id
        WHERE lower(m.employee_email)=$1
        ORDER BY t.team_name`
	return r.list(ctx, query, domain.NormalizeEmail(employeeEmail))
}

func (r *teamRepository) AddMember(ctx context.Context, member *domain.TeamMember) error {
	const query = `
        INSERT INTO team_members (team_id, employee_email, employee_name, manager_email)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		member.TeamID,
		domain.NormalizeEmail(member.EmployeeEmail),
		member.EmployeeName,
		domain.NormalizeEmail(member.ManagerEmail),
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	const query = `
        SELECT id, team_id, employee_email, employee_name, manager_email, created_at
        FROM team_members WHERE team_id=$1 ORDER BY employee_email`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.EmployeeEmail, &m.EmployeeName, &m.ManagerEmail, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *teamRepository) list(ctx context.Context, query string, args ...any) ([]domain.Team, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Team{}
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.TeamName, &team.ManagerEmail, &team.ManagerName, &team.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}

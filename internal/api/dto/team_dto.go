package dto

import (
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

// CreateTeamRequest payload for POST /teams.
type CreateTeamRequest struct {
	TeamName     string `json:"team_name"`
	ManagerEmail string `json:"manager_email"`
	ManagerName  string `json:"manager_name"`
}

// AddMemberRequest payload for POST /teams/:id/members.
type AddMemberRequest struct {
	EmployeeEmail string `json:"employee_email"`
	EmployeeName  string `json:"employee_name"`
}

// TeamResponse is the wire form of a team.
type TeamResponse struct {
	ID           string    `json:"id"`
	TeamName     string    `json:"team_name"`
	ManagerEmail string    `json:"manager_email"`
	ManagerName  string    `json:"manager_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// TeamMemberResponse is the wire form of a membership.
type TeamMemberResponse struct {
	ID            string    `json:"id"`
	TeamID        string    `json:"team_id"`
	EmployeeEmail string    `json:"employee_email"`
	EmployeeName  string    `json:"employee_name"`
	ManagerEmail  string    `json:"manager_email"`
	CreatedAt     time.Time `json:"created_at"`
}

// TeamFromDomain builds the wire form of t.
func TeamFromDomain(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:           t.ID,
		TeamName:     t.TeamName,
		ManagerEmail: t.ManagerEmail,
		ManagerName:  t.ManagerName,
		CreatedAt:    t.CreatedAt,
	}
}

// ToDomain converts the wire form back into a team.
func (r TeamResponse) ToDomain() domain.Team {
	return domain.Team{
		ID:           r.ID,
		TeamName:     r.TeamName,
		ManagerEmail: r.ManagerEmail,
		ManagerName:  r.ManagerName,
		CreatedAt:    r.CreatedAt,
	}
}

package service

import (
	"context"
	"strings"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/repository"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

// TeamService manages teams and memberships.
type TeamService struct {
	teams      repository.TeamRepository
	dispatcher events.Dispatcher
}

// CreateTeamInput describes a new team.
type CreateTeamInput struct {
	TeamName     string
	ManagerEmail string
	ManagerName  string
}

// AddMemberInput describes a new membership.
type AddMemberInput struct {
	EmployeeEmail string
	EmployeeName  string
}

// NewTeamService builds the service.
func NewTeamService(teams repository.TeamRepository, dispatcher events.Dispatcher) *TeamService {
	return &TeamService{teams: teams, dispatcher: dispatcher}
}

// List returns all teams to admins, managed teams to managers and
// memberships to users.
func (s *TeamService) List(ctx context.Context, actor *domain.User) ([]domain.Team, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return s.teams.ListAll(ctx)
	case domain.RoleManager:
		return s.teams.ListByManagerEmail(ctx, actor.Email)
	default:
		return s.teams.ListByMemberEmail(ctx, actor.Email)
	}
}

// Create adds a team. Admin only.
func (s *TeamService) Create(ctx context.Context, actor *domain.User, in CreateTeamInput) (*domain.Team, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	team := &domain.Team{
		TeamName:     strings.TrimSpace(in.TeamName),
		ManagerEmail: domain.NormalizeEmail(in.ManagerEmail),
		ManagerName:  strings.TrimSpace(in.ManagerName),
	}
	if team.TeamName == "" {
		return nil, apperrors.NewValidationError("team_name is required", map[string]any{"field": "team_name"})
	}
	if team.ManagerEmail == "" {
		return nil, apperrors.NewValidationError("manager_email is required", map[string]any{"field": "manager_email"})
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTeamCreated,
			SubjectID: team.ID,
			Actor:     events.ActorOf(actor),
			Payload:   events.TeamCreatedPayload{TeamName: team.TeamName, ManagerEmail: team.ManagerEmail},
		})
	}
	return team, nil
}

// AddMember links an employee to a team. Admins may add to any team,
// managers only to teams they manage. A duplicate membership is a conflict.
func (s *TeamService) AddMember(ctx context.Context, actor *domain.User, teamID string, in AddMemberInput) (*domain.TeamMember, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleManager:
		if !domain.SameEmail(actor.Email, team.ManagerEmail) {
			return nil, apperrors.NewForbidden("team is managed by someone else")
		}
	default:
		return nil, apperrors.NewForbidden("manager or admin role required")
	}

	member := &domain.TeamMember{
		TeamID:        team.ID,
		EmployeeEmail: domain.NormalizeEmail(in.EmployeeEmail),
		EmployeeName:  strings.TrimSpace(in.EmployeeName),
		ManagerEmail:  team.ManagerEmail,
	}
	if member.EmployeeEmail == "" {
		return nil, apperrors.NewValidationError("employee_email is required", map[string]any{"field": "employee_email"})
	}
	if err := s.teams.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventTeamMemberAdded,
			SubjectID: member.ID,
			Actor:     events.ActorOf(actor),
			Payload:   events.TeamMemberAddedPayload{TeamID: team.ID, EmployeeEmail: member.EmployeeEmail},
		})
	}
	return member, nil
}

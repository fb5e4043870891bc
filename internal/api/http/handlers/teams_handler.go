package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/daily-status/internal/api/dto"
	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/service"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

// TeamsHandler manages team endpoints.
type TeamsHandler struct {
	service *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{service: teamService}
}

// ListTeams GET /teams.
func (h *TeamsHandler) ListTeams(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	teams, err := h.service.List(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, dto.TeamFromDomain(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTeam POST /teams.
func (h *TeamsHandler) CreateTeam(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	team, err := h.service.Create(c.UserContext(), principal.User, service.CreateTeamInput{
		TeamName:     req.TeamName,
		ManagerEmail: req.ManagerEmail,
		ManagerName:  req.ManagerName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TeamFromDomain(team)})
}

// AddMember POST /teams/:id/members.
func (h *TeamsHandler) AddMember(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.service.AddMember(c.UserContext(), principal.User, c.Params("id"), service.AddMemberInput{
		EmployeeEmail: req.EmployeeEmail,
		EmployeeName:  req.EmployeeName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamMemberResponse(member)})
}

func teamMemberResponse(member *domain.TeamMember) dto.TeamMemberResponse {
	return dto.TeamMemberResponse{
		ID:            member.ID,
		TeamID:        member.TeamID,
		EmployeeEmail: member.EmployeeEmail,
		EmployeeName:  member.EmployeeName,
		ManagerEmail:  member.ManagerEmail,
		CreatedAt:     member.CreatedAt,
	}
}

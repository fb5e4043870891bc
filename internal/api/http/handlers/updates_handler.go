package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/daily-status/internal/api/dto"
	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/service"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

const maxListLimit = 1000

// UpdatesHandler manages daily update endpoints.
type UpdatesHandler struct {
	service *service.UpdateService
}

// NewUpdatesHandler constructs handler.
func NewUpdatesHandler(updateService *service.UpdateService) *UpdatesHandler {
	return &UpdatesHandler{service: updateService}
}

// ListUpdates GET /updates.
func (h *UpdatesHandler) ListUpdates(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	input, err := parseUpdateQuery(c)
	if err != nil {
		return err
	}
	updates, err := h.service.List(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	items := make([]dto.UpdateResponse, 0, len(updates))
	for i := range updates {
		items = append(items, dto.UpdateFromDomain(&updates[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUpdate GET /updates/:id.
func (h *UpdatesHandler) GetUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	update, err := h.service.Get(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UpdateFromDomain(update)})
}

// CreateUpdate POST /updates.
func (h *UpdatesHandler) CreateUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateUpdateInput{
		TeamID:             req.TeamID,
		TasksCompleted:     req.TasksCompleted,
		StoryPoints:        req.StoryPoints,
		Priority:           domain.Priority(req.Priority),
		Status:             domain.UpdateStatus(req.Status),
		BlockerDescription: req.BlockerDescription,
		AdditionalNotes:    req.AdditionalNotes,
	}
	if req.BlockerType != nil {
		blocker := domain.BlockerType(*req.BlockerType)
		input.BlockerType = &blocker
	}
	var err error
	if input.StartDate, err = parseDateField("start_date", req.StartDate); err != nil {
		return err
	}
	if input.EndDate, err = parseDateField("end_date", req.EndDate); err != nil {
		return err
	}
	if input.ExpectedResolutionDate, err = parseDateField("expected_resolution_date", req.ExpectedResolutionDate); err != nil {
		return err
	}

	update, err := h.service.Create(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UpdateFromDomain(update)})
}

// EditUpdate PATCH /updates/:id.
func (h *UpdatesHandler) EditUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.EditUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.EditUpdateInput{
		TasksCompleted:     req.TasksCompleted,
		StoryPoints:        req.StoryPoints,
		BlockerDescription: req.BlockerDescription,
		AdditionalNotes:    req.AdditionalNotes,
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		input.Priority = &priority
	}
	if req.Status != nil {
		status := domain.UpdateStatus(*req.Status)
		input.Status = &status
	}
	if req.BlockerType != nil {
		blocker := domain.BlockerType(*req.BlockerType)
		input.BlockerType = &blocker
	}
	var err error
	if input.StartDate, err = parseDateField("start_date", req.StartDate); err != nil {
		return err
	}
	if input.EndDate, err = parseDateField("end_date", req.EndDate); err != nil {
		return err
	}
	if input.ExpectedResolutionDate, err = parseDateField("expected_resolution_date", req.ExpectedResolutionDate); err != nil {
		return err
	}

	update, err := h.service.Edit(c.UserContext(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UpdateFromDomain(update)})
}

func parseUpdateQuery(c *fiber.Ctx) (service.ListUpdatesInput, error) {
	input := service.ListUpdatesInput{
		EmployeeEmail: strings.TrimSpace(c.Query("employee_email")),
		TeamID:        strings.TrimSpace(c.Query("team_id")),
		Limit:         parseInt(c.Query("limit"), 0),
	}
	if input.Limit > maxListLimit {
		input.Limit = maxListLimit
	}
	from, err := parseTimeParam("created_from", c.Query("created_from"))
	if err != nil {
		return input, err
	}
	to, err := parseTimeParam("created_to", c.Query("created_to"))
	if err != nil {
		return input, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return input, apperrors.NewValidationError("created_to is before created_from", map[string]any{"field": "created_to"})
	}
	input.CreatedFrom, input.CreatedTo = from, to
	return input, nil
}

// parseTimeParam accepts RFC3339 timestamps only; calendar-day bounds are
// resolved by the caller in its own timezone.
func parseTimeParam(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid timestamp", map[string]any{"field": field, "value": val})
	}
	return &t, nil
}

// parseDateField accepts YYYY-MM-DD or RFC3339. Blank values are treated as
// absent.
func parseDateField(field string, val *string) (*time.Time, error) {
	if val == nil || strings.TrimSpace(*val) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*val)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": field, "value": raw})
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

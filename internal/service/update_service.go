package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/repository"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

// UpdateService stores updates, scopes reads by role and gates edits.
type UpdateService struct {
	updates    repository.UpdateRepository
	teams      repository.TeamRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// UpdateDependencies bundles repositories for the update service.
type UpdateDependencies struct {
	UpdateRepo repository.UpdateRepository
	TeamRepo   repository.TeamRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ListUpdatesInput narrows a listing. Empty fields do not filter.
type ListUpdatesInput struct {
	EmployeeEmail string
	TeamID        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
}

// CreateUpdateInput is the employee-supplied part of a new update.
type CreateUpdateInput struct {
	TeamID                 *string
	TasksCompleted         string
	StoryPoints            *int
	Priority               domain.Priority
	Status                 domain.UpdateStatus
	StartDate              *time.Time
	EndDate                *time.Time
	BlockerType            *domain.BlockerType
	BlockerDescription     *string
	ExpectedResolutionDate *time.Time
	AdditionalNotes        *string
}

// EditUpdateInput patches an update. Nil fields are left as they are; an
// empty blocker type clears the blocker with its dependent fields.
type EditUpdateInput struct {
	TasksCompleted         *string
	StoryPoints            *int
	Priority               *domain.Priority
	Status                 *domain.UpdateStatus
	StartDate              *time.Time
	EndDate                *time.Time
	BlockerType            *domain.BlockerType
	BlockerDescription     *string
	ExpectedResolutionDate *time.Time
	AdditionalNotes        *string
}

// NewUpdateService builds the service.
func NewUpdateService(deps UpdateDependencies) *UpdateService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateService{
		updates:    deps.UpdateRepo,
		teams:      deps.TeamRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// List returns updates visible to actor: users see their own, managers the
// teams they manage, admins everything.
func (s *UpdateService) List(ctx context.Context, actor *domain.User, in ListUpdatesInput) ([]domain.Update, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}

	filter := repository.UpdateFilter{
		CreatedFrom: in.CreatedFrom,
		CreatedTo:   in.CreatedTo,
		Limit:       in.Limit,
	}
	if in.EmployeeEmail != "" {
		email := domain.NormalizeEmail(in.EmployeeEmail)
		filter.EmployeeEmail = &email
	}
	if in.TeamID != "" {
		filter.TeamIDs = []string{in.TeamID}
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleManager:
		managed, err := s.managedTeamIDs(ctx, actor.Email)
		if err != nil {
			return nil, err
		}
		if in.TeamID != "" {
			if !slices.Contains(managed, in.TeamID) {
				return []domain.Update{}, nil
			}
		} else {
			filter.TeamIDs = managed
		}
		if len(filter.TeamIDs) == 0 {
			return []domain.Update{}, nil
		}
	default:
		if in.EmployeeEmail != "" && !domain.SameEmail(in.EmployeeEmail, actor.Email) {
			return nil, apperrors.NewForbidden("users may only list their own updates")
		}
		email := domain.NormalizeEmail(actor.Email)
		filter.EmployeeEmail = &email
	}

	return s.updates.ListWithFilter(ctx, filter)
}

// Get returns one update if actor may see it. Invisible updates read as
// not found.
func (s *UpdateService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Update, error) {
	update, err := s.updates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	visible, err := s.visible(ctx, actor, update)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.NewNotFound("update", map[string]any{"id": id})
	}
	return update, nil
}

// Create stores a new update owned by actor. Without an explicit team the
// actor's first team membership is used.
func (s *UpdateService) Create(ctx context.Context, actor *domain.User, in CreateUpdateInput) (*domain.Update, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}

	update := &domain.Update{
		EmployeeEmail:          domain.NormalizeEmail(actor.Email),
		EmployeeName:           actor.Name,
		TeamID:                 in.TeamID,
		TasksCompleted:         in.TasksCompleted,
		StoryPoints:            in.StoryPoints,
		Priority:               in.Priority,
		Status:                 in.Status,
		StartDate:              in.StartDate,
		EndDate:                in.EndDate,
		BlockerType:            in.BlockerType,
		BlockerDescription:     in.BlockerDescription,
		ExpectedResolutionDate: in.ExpectedResolutionDate,
		AdditionalNotes:        in.AdditionalNotes,
	}
	if update.Status == "" {
		update.Status = domain.StatusToDo
	}

	if update.TeamID == nil || *update.TeamID == "" {
		teams, err := s.teams.ListByMemberEmail(ctx, actor.Email)
		if err != nil {
			return nil, err
		}
		update.TeamID = nil
		if len(teams) > 0 {
			update.TeamID = &teams[0].ID
		}
	}

	update.Normalize()
	if err := update.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := s.updates.Create(ctx, update); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUpdateCreated,
		SubjectID: update.ID,
		Actor:     events.ActorOf(actor),
		Payload: events.UpdateCreatedPayload{
			EmployeeEmail: update.EmployeeEmail,
			TeamID:        update.TeamID,
			Status:        update.Status,
			BlockerType:   update.BlockerType,
		},
	})
	return s.reload(ctx, update)
}

// Edit applies a patch if domain.CanEdit allows it. Owner, team and
// created_at are never changed.
func (s *UpdateService) Edit(ctx context.Context, actor *domain.User, id string, in EditUpdateInput) (*domain.Update, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	existing, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEdit(actor, existing) {
		return nil, apperrors.NewForbidden("update can no longer be edited")
	}

	oldStatus := existing.Status
	hadBlocker := existing.HasBlocker()
	updated := *existing
	applyEdit(&updated, in)

	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := s.updates.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventUpdateEdited,
		SubjectID: updated.ID,
		Actor:     events.ActorOf(actor),
		Payload: events.UpdateEditedPayload{
			EmployeeEmail: updated.EmployeeEmail,
			OldStatus:     oldStatus,
			NewStatus:     updated.Status,
			BlockerAdded:  !hadBlocker && updated.HasBlocker(),
		},
	})
	return s.reload(ctx, &updated)
}

func applyEdit(u *domain.Update, in EditUpdateInput) {
	if in.TasksCompleted != nil {
		u.TasksCompleted = *in.TasksCompleted
	}
	if in.StoryPoints != nil {
		u.StoryPoints = in.StoryPoints
	}
	if in.Priority != nil {
		u.Priority = *in.Priority
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	if in.StartDate != nil {
		u.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		u.EndDate = in.EndDate
	}
	if in.BlockerType != nil {
		u.BlockerType = in.BlockerType
	}
	if in.BlockerDescription != nil {
		u.BlockerDescription = in.BlockerDescription
	}
	if in.ExpectedResolutionDate != nil {
		u.ExpectedResolutionDate = in.ExpectedResolutionDate
	}
	if in.AdditionalNotes != nil {
		u.AdditionalNotes = in.AdditionalNotes
	}
}

func (s *UpdateService) visible(ctx context.Context, actor *domain.User, update *domain.Update) (bool, error) {
	if actor == nil {
		return false, nil
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return true, nil
	case domain.RoleManager:
		if domain.IsOwner(actor, update) {
			return true, nil
		}
		if update.TeamID == nil {
			return false, nil
		}
		managed, err := s.managedTeamIDs(ctx, actor.Email)
		if err != nil {
			return false, err
		}
		return slices.Contains(managed, *update.TeamID), nil
	default:
		return domain.IsOwner(actor, update), nil
	}
}

func (s *UpdateService) managedTeamIDs(ctx context.Context, managerEmail string) ([]string, error) {
	teams, err := s.teams.ListByManagerEmail(ctx, managerEmail)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	return ids, nil
}

// reload re-reads the row so the joined team name is filled in.
func (s *UpdateService) reload(ctx context.Context, update *domain.Update) (*domain.Update, error) {
	fresh, err := s.updates.GetByID(ctx, update.ID)
	if err != nil {
		s.logger.Warn("reload after write failed", zap.String("update_id", update.ID), zap.Error(err))
		return update, nil
	}
	return fresh, nil
}

func (s *UpdateService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

var fieldOfError = map[error]string{
	domain.ErrTasksRequired:              "tasks_completed",
	domain.ErrInvalidStatus:              "status",
	domain.ErrInvalidPriority:            "priority",
	domain.ErrInvalidBlockerType:         "blocker_type",
	domain.ErrBlockerDescriptionRequired: "blocker_description",
	domain.ErrBlockerFieldsWithoutType:   "blocker_type",
	domain.ErrInvalidDateRange:           "end_date",
}

func validationError(err error) error {
	for target, field := range fieldOfError {
		if errors.Is(err, target) {
			return apperrors.NewValidationError(err.Error(), map[string]any{"field": field})
		}
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

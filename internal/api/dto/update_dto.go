package dto

import (
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

// CreateUpdateRequest payload for POST /updates. Dates use YYYY-MM-DD.
type CreateUpdateRequest struct {
	TeamID                 *string `json:"team_id"`
	TasksCompleted         string  `json:"tasks_completed"`
	StoryPoints            *int    `json:"story_points"`
	Priority               string  `json:"priority"`
	Status                 string  `json:"status"`
	StartDate              *string `json:"start_date"`
	EndDate                *string `json:"end_date"`
	BlockerType            *string `json:"blocker_type"`
	BlockerDescription     *string `json:"blocker_description"`
	ExpectedResolutionDate *string `json:"expected_resolution_date"`
	AdditionalNotes        *string `json:"additional_notes"`
}

// EditUpdateRequest payload for PATCH /updates/:id. Absent fields are kept;
// an empty blocker_type clears the blocker.
type EditUpdateRequest struct {
	TasksCompleted         *string `json:"tasks_completed"`
	StoryPoints            *int    `json:"story_points"`
	Priority               *string `json:"priority"`
	Status                 *string `json:"status"`
	StartDate              *string `json:"start_date"`
	EndDate                *string `json:"end_date"`
	BlockerType            *string `json:"blocker_type"`
	BlockerDescription     *string `json:"blocker_description"`
	ExpectedResolutionDate *string `json:"expected_resolution_date"`
	AdditionalNotes        *string `json:"additional_notes"`
}

// UpdateResponse is the wire form of a daily update.
type UpdateResponse struct {
	ID                     string     `json:"id"`
	EmployeeEmail          string     `json:"employee_email"`
	EmployeeName           string     `json:"employee_name"`
	TeamID                 *string    `json:"team_id"`
	TeamName               string     `json:"team_name"`
	CreatedAt              time.Time  `json:"created_at"`
	TasksCompleted         string     `json:"tasks_completed"`
	StoryPoints            *int       `json:"story_points"`
	Priority               string     `json:"priority"`
	Status                 string     `json:"status"`
	StartDate              *time.Time `json:"start_date"`
	EndDate                *time.Time `json:"end_date"`
	BlockerType            *string    `json:"blocker_type"`
	BlockerDescription     *string    `json:"blocker_description"`
	ExpectedResolutionDate *time.Time `json:"expected_resolution_date"`
	AdditionalNotes        *string    `json:"additional_notes"`
}

// UpdateFromDomain builds the wire form of u.
func UpdateFromDomain(u *domain.Update) UpdateResponse {
	resp := UpdateResponse{
		ID:                     u.ID,
		EmployeeEmail:          u.EmployeeEmail,
		EmployeeName:           u.EmployeeName,
		TeamID:                 u.TeamID,
		TeamName:               u.TeamName,
		CreatedAt:              u.CreatedAt,
		TasksCompleted:         u.TasksCompleted,
		StoryPoints:            u.StoryPoints,
		Priority:               string(u.Priority),
		Status:                 string(u.Status),
		StartDate:              u.StartDate,
		EndDate:                u.EndDate,
		BlockerDescription:     u.BlockerDescription,
		ExpectedResolutionDate: u.ExpectedResolutionDate,
		AdditionalNotes:        u.AdditionalNotes,
	}
	if u.BlockerType != nil {
		blocker := string(*u.BlockerType)
		resp.BlockerType = &blocker
	}
	return resp
}

// ToDomain converts the wire form back into an update.
func (r UpdateResponse) ToDomain() domain.Update {
	u := domain.Update{
		ID:                     r.ID,
		EmployeeEmail:          r.EmployeeEmail,
		EmployeeName:           r.EmployeeName,
		TeamID:                 r.TeamID,
		TeamName:               r.TeamName,
		CreatedAt:              r.CreatedAt,
		TasksCompleted:         r.TasksCompleted,
		StoryPoints:            r.StoryPoints,
		Priority:               domain.Priority(r.Priority),
		Status:                 domain.UpdateStatus(r.Status),
		StartDate:              r.StartDate,
		EndDate:                r.EndDate,
		BlockerDescription:     r.BlockerDescription,
		ExpectedResolutionDate: r.ExpectedResolutionDate,
		AdditionalNotes:        r.AdditionalNotes,
	}
	if r.BlockerType != nil {
		blocker := domain.BlockerType(*r.BlockerType)
		u.BlockerType = &blocker
	}
	return u
}
